package nutrition

import "math"

// Externally visible bounds for every hourly value the calculator produces.
const (
	MinCarbsG   = 30.0
	MaxCarbsG   = 120.0
	MinFluidMl  = 300.0
	MaxFluidMl  = 1200.0
	MinSodiumMg = 300.0
	MaxSodiumMg = 1500.0
)

// HourlyTargets are constant across every hour of one plan.
type HourlyTargets struct {
	CarbsGramsTarget float64 `json:"carbs_grams_target"`
	CarbsGramsMin    float64 `json:"carbs_grams_min"`
	CarbsGramsMax    float64 `json:"carbs_grams_max"`
	FluidMlTarget    float64 `json:"fluid_ml_target"`
	FluidMlMin       float64 `json:"fluid_ml_min"`
	FluidMlMax       float64 `json:"fluid_ml_max"`
	SodiumMgTarget   float64 `json:"sodium_mg_target"`
	SodiumMgMin      float64 `json:"sodium_mg_min"`
	SodiumMgMax      float64 `json:"sodium_mg_max"`
	CaloriesTarget   float64 `json:"calories_target"`
}

// Configured is false for the degenerate targets returned on invalid input.
func (h HourlyTargets) Configured() bool {
	return h.CarbsGramsTarget > 0
}

// TotalTargets is every HourlyTargets field multiplied by the race hours.
type TotalTargets struct {
	Hours int `json:"hours"`
	HourlyTargets
}

// ComputeHourlyTargets derives per-hour fueling targets. It never fails: input
// that cannot describe a race yields zero targets so callers can render an
// unconfigured state.
func ComputeHourlyTargets(race RaceContext, athlete AthleteContext, weather WeatherContext) HourlyTargets {
	if race.DurationHours() <= 0 || athlete.WeightKg <= 0 {
		return HourlyTargets{}
	}
	if weather.HumidityPercent < 0 || weather.HumidityPercent > 100 {
		return HourlyTargets{}
	}
	if !finite(athlete.WeightKg, weather.TemperatureF, weather.HumidityPercent, race.MaxElevationFt) {
		return HourlyTargets{}
	}

	ceiling := carbCeiling(athlete.GutTraining, race.MaxElevationFt)
	carbs := clamp(math.Min(baseCarbs(athlete.GutTraining), ceiling), MinCarbsG, MaxCarbsG)

	fluid := baseFluid(athlete.SweatRate) +
		heatExcess(weather.TemperatureF)*8 +
		humidityExcess(weather.HumidityPercent)*3 +
		(athlete.WeightKg-70)*4 +
		elevationExcess(race.MaxElevationFt)*10
	fluid = clamp(math.Round(fluid), MinFluidMl, MaxFluidMl)

	sodium := baseSodium(athlete.SweatRate) +
		heatExcess(weather.TemperatureF)*10 +
		humidityExcess(weather.HumidityPercent)*3
	sodium = clamp(math.Round(sodium), MinSodiumMg, MaxSodiumMg)

	return HourlyTargets{
		CarbsGramsTarget: carbs,
		CarbsGramsMin:    clamp(math.Round(carbs*0.75), MinCarbsG, MaxCarbsG),
		CarbsGramsMax:    clamp(math.Max(ceiling, carbs), MinCarbsG, MaxCarbsG),
		FluidMlTarget:    fluid,
		FluidMlMin:       clamp(math.Round(fluid*0.75), MinFluidMl, MaxFluidMl),
		FluidMlMax:       clamp(math.Round(fluid*1.25), MinFluidMl, MaxFluidMl),
		SodiumMgTarget:   sodium,
		SodiumMgMin:      clamp(math.Round(sodium*0.7), MinSodiumMg, MaxSodiumMg),
		SodiumMgMax:      clamp(math.Round(sodium*1.3), MinSodiumMg, MaxSodiumMg),
		// carbohydrate supplies roughly 90% of race-pace fueling energy
		CaloriesTarget: math.Round(carbs * 4 / 0.9),
	}
}

// ComputeTotalTargets scales hourly targets linearly by race hours.
func ComputeTotalTargets(hourly HourlyTargets, hours int) TotalTargets {
	if hours <= 0 || !hourly.Configured() {
		return TotalTargets{}
	}
	n := float64(hours)
	return TotalTargets{
		Hours: hours,
		HourlyTargets: HourlyTargets{
			CarbsGramsTarget: hourly.CarbsGramsTarget * n,
			CarbsGramsMin:    hourly.CarbsGramsMin * n,
			CarbsGramsMax:    hourly.CarbsGramsMax * n,
			FluidMlTarget:    hourly.FluidMlTarget * n,
			FluidMlMin:       hourly.FluidMlMin * n,
			FluidMlMax:       hourly.FluidMlMax * n,
			SodiumMgTarget:   hourly.SodiumMgTarget * n,
			SodiumMgMin:      hourly.SodiumMgMin * n,
			SodiumMgMax:      hourly.SodiumMgMax * n,
			CaloriesTarget:   hourly.CaloriesTarget * n,
		},
	}
}

func baseCarbs(g GutTraining) float64 {
	switch g {
	case GutUntrained:
		return 60
	case GutWellTrained:
		return 90
	default:
		return 75
	}
}

// carbCeiling is the practical hourly limit before altitude is considered.
func carbCeiling(g GutTraining, elevationFt float64) float64 {
	var ceiling float64
	switch g {
	case GutUntrained:
		ceiling = 70
	case GutWellTrained:
		ceiling = 120
	default:
		ceiling = 90
	}
	// 2.5 g/hr less per 1000 ft above 5000 ft, capped at 20 g/hr
	penalty := math.Min(elevationExcess(elevationFt)*2.5, 20)
	return ceiling - penalty
}

func baseFluid(s SweatRate) float64 {
	switch s {
	case SweatLow:
		return 450
	case SweatHigh:
		return 800
	default:
		return 600
	}
}

func baseSodium(s SweatRate) float64 {
	switch s {
	case SweatLow:
		return 400
	case SweatHigh:
		return 900
	default:
		return 600
	}
}

func heatExcess(tempF float64) float64 {
	return math.Max(tempF-60, 0)
}

func humidityExcess(humidity float64) float64 {
	return math.Max(humidity-40, 0)
}

// elevationExcess is thousands of feet above 5000 ft.
func elevationExcess(ft float64) float64 {
	return math.Max(ft-5000, 0) / 1000
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
