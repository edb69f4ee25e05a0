package nutrition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInputs() (RaceContext, AthleteContext, WeatherContext) {
	return RaceContext{DurationMinutes: 8 * 60, StartTimeOfDay: "06:00"},
		AthleteContext{WeightKg: 75, SweatRate: SweatMedium, GutTraining: GutModerate},
		WeatherContext{TemperatureF: 90, HumidityPercent: 70}
}

func TestDurationHoursRoundsUp(t *testing.T) {
	tests := []struct {
		minutes  int
		expected int
	}{
		{0, 0},
		{-30, 0},
		{1, 1},
		{60, 1},
		{61, 2},
		{330, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, RaceContext{DurationMinutes: tt.minutes}.DurationHours(), "minutes=%d", tt.minutes)
	}
}

func TestComputeHourlyTargetsHotLongRace(t *testing.T) {
	race, athlete, weather := baseInputs()

	hourly := ComputeHourlyTargets(race, athlete, weather)
	require.True(t, hourly.Configured())

	assert.GreaterOrEqual(t, hourly.CarbsGramsTarget, MinCarbsG)
	assert.LessOrEqual(t, hourly.CarbsGramsTarget, MaxCarbsG)
	assert.GreaterOrEqual(t, hourly.FluidMlTarget, MinFluidMl)
	assert.LessOrEqual(t, hourly.FluidMlTarget, MaxFluidMl)
	assert.GreaterOrEqual(t, hourly.SodiumMgTarget, MinSodiumMg)
	assert.LessOrEqual(t, hourly.SodiumMgTarget, MaxSodiumMg)

	total := ComputeTotalTargets(hourly, race.DurationHours())
	assert.Equal(t, 8, total.Hours)
	assert.Equal(t, hourly.CarbsGramsTarget*8, total.CarbsGramsTarget)
	assert.Equal(t, hourly.FluidMlTarget*8, total.FluidMlTarget)
	assert.Equal(t, hourly.SodiumMgTarget*8, total.SodiumMgTarget)
}

func TestComputeHourlyTargetsInvalidInputIsUnconfigured(t *testing.T) {
	race, athlete, weather := baseInputs()

	tests := []struct {
		name    string
		race    RaceContext
		athlete AthleteContext
		weather WeatherContext
	}{
		{"zero duration", RaceContext{}, athlete, weather},
		{"zero weight", race, AthleteContext{}, weather},
		{"humidity above 100", race, athlete, WeatherContext{TemperatureF: 70, HumidityPercent: 101}},
		{"negative humidity", race, athlete, WeatherContext{TemperatureF: 70, HumidityPercent: -1}},
		{"nan humidity", race, athlete, WeatherContext{TemperatureF: 70, HumidityPercent: math.NaN()}},
		{"nan temperature", race, athlete, WeatherContext{TemperatureF: math.NaN(), HumidityPercent: 50}},
		{"infinite temperature", race, athlete, WeatherContext{TemperatureF: math.Inf(1), HumidityPercent: 50}},
		{"nan weight", race, AthleteContext{WeightKg: math.NaN()}, weather},
		{"infinite weight", race, AthleteContext{WeightKg: math.Inf(1)}, weather},
		{"nan elevation", RaceContext{DurationMinutes: race.DurationMinutes, MaxElevationFt: math.NaN()}, athlete, weather},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hourly := ComputeHourlyTargets(tt.race, tt.athlete, tt.weather)
			assert.False(t, hourly.Configured())
			assert.Equal(t, HourlyTargets{}, hourly)
			assert.Equal(t, TotalTargets{}, ComputeTotalTargets(hourly, tt.race.DurationHours()))
		})
	}
}

func TestHeatAndHumidityRaiseFluidAndSodium(t *testing.T) {
	race, athlete, _ := baseInputs()

	prev := ComputeHourlyTargets(race, athlete, WeatherContext{TemperatureF: 50, HumidityPercent: 30})
	for _, w := range []WeatherContext{
		{TemperatureF: 65, HumidityPercent: 30},
		{TemperatureF: 75, HumidityPercent: 50},
		{TemperatureF: 85, HumidityPercent: 60},
		{TemperatureF: 95, HumidityPercent: 80},
		{TemperatureF: 110, HumidityPercent: 100},
	} {
		next := ComputeHourlyTargets(race, athlete, w)
		assert.GreaterOrEqual(t, next.FluidMlTarget, prev.FluidMlTarget, "%+v", w)
		assert.GreaterOrEqual(t, next.SodiumMgTarget, prev.SodiumMgTarget, "%+v", w)
		assert.LessOrEqual(t, next.FluidMlTarget, MaxFluidMl)
		assert.LessOrEqual(t, next.SodiumMgTarget, MaxSodiumMg)
		prev = next
	}
}

func TestElevationAndGutTrainingLowerCarbCeiling(t *testing.T) {
	race, athlete, weather := baseInputs()

	prev := ComputeHourlyTargets(race, athlete, weather)
	for _, ft := range []float64{3000, 6000, 9000, 12000, 20000} {
		race.MaxElevationFt = ft
		next := ComputeHourlyTargets(race, athlete, weather)
		assert.LessOrEqual(t, next.CarbsGramsMax, prev.CarbsGramsMax, "elevation %v", ft)
		assert.GreaterOrEqual(t, next.CarbsGramsMax, MinCarbsG)
		prev = next
	}

	race.MaxElevationFt = 0
	untrained := ComputeHourlyTargets(race, AthleteContext{WeightKg: 75, GutTraining: GutUntrained}, weather)
	moderate := ComputeHourlyTargets(race, AthleteContext{WeightKg: 75, GutTraining: GutModerate}, weather)
	trained := ComputeHourlyTargets(race, AthleteContext{WeightKg: 75, GutTraining: GutWellTrained}, weather)
	assert.Less(t, untrained.CarbsGramsMax, moderate.CarbsGramsMax)
	assert.Less(t, moderate.CarbsGramsMax, trained.CarbsGramsMax)
	assert.LessOrEqual(t, trained.CarbsGramsMax, MaxCarbsG)
}

func TestDurationDoesNotChangeHourlyTarget(t *testing.T) {
	_, athlete, weather := baseInputs()

	short := ComputeHourlyTargets(RaceContext{DurationMinutes: 90}, athlete, weather)
	long := ComputeHourlyTargets(RaceContext{DurationMinutes: 14 * 60}, athlete, weather)
	assert.Equal(t, short, long)
	assert.Equal(t, long.CarbsGramsTarget*14, ComputeTotalTargets(long, 14).CarbsGramsTarget)
}

func TestComputeIsDeterministic(t *testing.T) {
	race, athlete, weather := baseInputs()
	assert.Equal(t, ComputeHourlyTargets(race, athlete, weather), ComputeHourlyTargets(race, athlete, weather))
}
