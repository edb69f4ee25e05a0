package validate

import (
	"fmt"

	"fuelplanner/internal/catalog"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/timeline"
)

// Status classifies actual intake against a target.
type Status string

const (
	StatusBelow    Status = "below"
	StatusOnTarget Status = "on-target"
	StatusAbove    Status = "above"
)

// Band edges as a fraction of target. Both edges count as on-target.
const (
	LowerBand = 0.70
	UpperBand = 1.10
)

const (
	// HotTemperatureF is where low sodium becomes a plan warning.
	HotTemperatureF = 80.0
	// MaxCaffeineMgPerKg is the whole-race caffeine limit.
	MaxCaffeineMgPerKg = 6.0
)

// Classify compares actual to target. A target that is not positive
// cannot be missed.
func Classify(actual, target float64) Status {
	if target <= 0 {
		return StatusOnTarget
	}
	ratio := actual / target
	switch {
	case ratio < LowerBand:
		return StatusBelow
	case ratio > UpperBand:
		return StatusAbove
	default:
		return StatusOnTarget
	}
}

// Intake is what one hour delivers. CarbCeilingG is the absorption ceiling
// implied by the hour's product mix.
type Intake struct {
	CarbsG       float64
	FluidMl      float64
	SodiumMg     float64
	CarbCeilingG float64
}

// HourResult is the classification of one hour.
type HourResult struct {
	HourNumber int      `json:"hour_number"`
	Carbs      Status   `json:"carbs_status"`
	Fluid      Status   `json:"fluid_status"`
	Sodium     Status   `json:"sodium_status"`
	Overall    Status   `json:"overall"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ValidateHourlyIntake classifies one hour. Overall is below when carbs or
// fluid is below, otherwise above when either is above.
func ValidateHourlyIntake(actual Intake, targets nutrition.HourlyTargets, enforceCeiling bool) HourResult {
	r := HourResult{
		Carbs:  Classify(actual.CarbsG, targets.CarbsGramsTarget),
		Fluid:  Classify(actual.FluidMl, targets.FluidMlTarget),
		Sodium: Classify(actual.SodiumMg, targets.SodiumMgTarget),
	}
	switch {
	case r.Carbs == StatusBelow || r.Fluid == StatusBelow:
		r.Overall = StatusBelow
	case r.Carbs == StatusAbove || r.Fluid == StatusAbove:
		r.Overall = StatusAbove
	default:
		r.Overall = StatusOnTarget
	}

	if enforceCeiling && actual.CarbCeilingG > 0 && actual.CarbsG > actual.CarbCeilingG {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"%.0f g carbohydrate exceeds the ~%.0f g/hr this product mix can absorb; expect GI distress",
			actual.CarbsG, actual.CarbCeilingG))
	}
	return r
}

// Conditions are the plan-wide inputs the checks depend on.
type Conditions struct {
	TemperatureF   float64
	WeightKg       float64
	EnforceCeiling bool
}

// Report is the validation of a whole timeline.
type Report struct {
	Hours           []HourResult `json:"hours"`
	Warnings        []string     `json:"warnings"`
	Recommendations []string     `json:"recommendations"`
}

// Evaluate validates every hour and derives plan-level messages. Unconfigured
// targets produce an empty report.
func Evaluate(hours []timeline.Hour, lookup catalog.Lookup, targets nutrition.HourlyTargets, cond Conditions) Report {
	rep := Report{Hours: []HourResult{}, Warnings: []string{}, Recommendations: []string{}}
	if !targets.Configured() {
		return rep
	}

	var lowSodium, carbsOnTarget int
	var caffeine float64
	for _, h := range hours {
		res := ValidateHourlyIntake(Intake{
			CarbsG:       h.Totals.Carbs,
			FluidMl:      h.Totals.Fluid,
			SodiumMg:     h.Totals.Sodium,
			CarbCeilingG: h.CarbCeilingG,
		}, targets, cond.EnforceCeiling)
		res.HourNumber = h.Number
		rep.Hours = append(rep.Hours, res)

		for _, w := range res.Warnings {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("Hour %d: %s", h.Number, w))
		}
		if res.Sodium == StatusBelow {
			lowSodium++
		}
		if res.Carbs == StatusOnTarget {
			carbsOnTarget++
			if balancedMix(h, lookup) {
				rep.Recommendations = append(rep.Recommendations,
					fmt.Sprintf("Hour %d: well-balanced glucose:fructose mix", h.Number))
			}
		}
		caffeine += h.Totals.Caffeine
	}

	if cond.TemperatureF >= HotTemperatureF && lowSodium > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf(
			"Sodium is below target in %d of %d hours at %.0f°F; heat raises sweat sodium losses",
			lowSodium, len(hours), cond.TemperatureF))
	}
	if cond.WeightKg > 0 {
		limit := cond.WeightKg * MaxCaffeineMgPerKg
		if caffeine > limit {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf(
				"Planned caffeine %.0f mg exceeds %.0f mg (%.0f mg/kg)", caffeine, limit, MaxCaffeineMgPerKg))
		}
	}
	if len(hours) > 0 && carbsOnTarget == len(hours) {
		rep.Recommendations = append(rep.Recommendations, "Carbohydrate is on target in every hour")
	}
	return rep
}

// balancedMix reports an hour whose carbohydrate all comes from products
// with a balanced glucose:fructose ratio.
func balancedMix(h timeline.Hour, lookup catalog.Lookup) bool {
	found := false
	for _, e := range h.Entries {
		p, ok := lookup.Product(e.ProductID)
		if !ok || p.CarbsGrams <= 0 {
			continue
		}
		if !nutrition.IsBalancedRatio(p.GlucoseFructoseRatio) {
			return false
		}
		found = true
	}
	return found
}
