package plansync

import (
	"fuelplanner/internal/plan"
	"fuelplanner/internal/timeline"
)

// ToRows converts a snapshot into storage rows.
func ToRows(snap timeline.Snapshot) ([]plan.Item, []plan.Water) {
	items := make([]plan.Item, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, plan.Item{
			HourNumber: it.HourNumber,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			FluidMl:    it.FluidMl,
			Source:     string(it.Source),
			SortOrder:  it.SortOrder,
		})
	}
	water := make([]plan.Water, 0, len(snap.Water))
	for _, w := range snap.Water {
		water = append(water, plan.Water{
			HourNumber: w.HourNumber,
			WaterMl:    w.WaterMl,
			Source:     string(w.Source),
		})
	}
	return items, water
}

// Replay places saved rows into tl. Each item becomes one entry with its
// saved quantity. Rows for hours the timeline does not have are dropped.
func Replay(tl *timeline.Timeline, p *plan.Plan) {
	for _, it := range p.Items {
		tl.Restore(it.HourNumber-1, timeline.Entry{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			FluidMl:   it.FluidMl,
			Source:    timeline.Source(it.Source),
			SortOrder: it.SortOrder,
		})
	}
	for _, w := range p.Water {
		tl.SetWater(w.HourNumber-1, w.WaterMl)
		tl.SetWaterSource(w.HourNumber-1, timeline.Source(w.Source))
	}
}
