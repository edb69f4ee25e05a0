package totals

import (
	"math"

	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/timeline"
)

// Progress is planned intake for one nutrient against its whole-race target.
type Progress struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Percent float64 `json:"percent"`
}

// RunningTotals is planned intake across every hour of the timeline.
type RunningTotals struct {
	Carbs    Progress `json:"carbs"`
	Fluid    Progress `json:"fluid"`
	Sodium   Progress `json:"sodium"`
	Calories Progress `json:"calories"`
	// CaffeineMg has no target; it is reported for the plan-level limit check.
	CaffeineMg float64 `json:"caffeine_mg"`
}

// Compute sums all hours, regardless of how far into the race the athlete is.
func Compute(hours []timeline.Hour, targets nutrition.TotalTargets) RunningTotals {
	var sum timeline.Totals
	for _, h := range hours {
		sum = sum.Add(h.Totals)
	}
	return RunningTotals{
		Carbs:      progress(sum.Carbs, targets.CarbsGramsTarget),
		Fluid:      progress(sum.Fluid, targets.FluidMlTarget),
		Sodium:     progress(sum.Sodium, targets.SodiumMgTarget),
		Calories:   progress(sum.Calories, targets.CaloriesTarget),
		CaffeineMg: sum.Caffeine,
	}
}

func progress(current, target float64) Progress {
	p := Progress{Current: current, Target: target}
	if target > 0 {
		p.Percent = math.Round(current/target*1000) / 10
	}
	return p
}
