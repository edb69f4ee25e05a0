package timeline

import "fuelplanner/internal/catalog"

// HourExport is the per-hour shape consumed by the sticker generator.
// Field names are a published contract; add fields, never rename them.
type HourExport struct {
	HourNumber int             `json:"hourNumber"`
	StartTime  string          `json:"startTime,omitempty"`
	EndTime    string          `json:"endTime,omitempty"`
	Elapsed    string          `json:"elapsed"`
	Products   []ProductExport `json:"products"`
	WaterMl    float64         `json:"waterMl"`
	Totals     Totals          `json:"totals"`
}

type ProductExport struct {
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Quantity int     `json:"quantity"`
	Carbs    float64 `json:"carbs"`
	Caffeine float64 `json:"caffeine"`
}

// Export renders every hour. Entries whose product is no longer in the
// catalog are exported by id with zero nutrition.
func (t *Timeline) Export() []HourExport {
	hours := t.Hours()
	out := make([]HourExport, 0, len(hours))
	for _, h := range hours {
		he := HourExport{
			HourNumber: h.Number,
			StartTime:  h.StartTime,
			EndTime:    h.EndTime,
			Elapsed:    h.Elapsed,
			Products:   make([]ProductExport, 0, len(h.Entries)),
			WaterMl:    h.WaterMl,
			Totals:     h.Totals,
		}
		for _, e := range h.Entries {
			p, ok := t.lookup.Product(e.ProductID)
			if !ok {
				p = catalog.Product{Name: e.ProductID}
			}
			he.Products = append(he.Products, ProductExport{
				Name:     p.Name,
				Brand:    p.Brand,
				Quantity: e.Quantity,
				Carbs:    p.CarbsGrams * float64(e.Quantity),
				Caffeine: p.CaffeineMg * float64(e.Quantity),
			})
		}
		out = append(out, he)
	}
	return out
}

// SnapshotItem is a persisted entry. Entry ids are session-local and left out.
type SnapshotItem struct {
	HourNumber int      `json:"hour_number"`
	ProductID  string   `json:"product_id"`
	Quantity   int      `json:"quantity"`
	FluidMl    *float64 `json:"fluid_ml,omitempty"`
	Source     Source   `json:"source"`
	SortOrder  int      `json:"sort_order"`
}

type SnapshotWater struct {
	HourNumber int     `json:"hour_number"`
	WaterMl    float64 `json:"water_ml"`
	Source     Source  `json:"source"`
}

// Snapshot is the persisted state of a timeline in a canonical order, so
// equal plans serialize to equal bytes.
type Snapshot struct {
	Items []SnapshotItem  `json:"items"`
	Water []SnapshotWater `json:"water"`
}

// Snapshot captures entries and non-empty water rows, hour by hour.
func (t *Timeline) Snapshot() Snapshot {
	s := Snapshot{Items: []SnapshotItem{}, Water: []SnapshotWater{}}
	for _, h := range t.hours {
		for _, e := range h.Entries {
			item := SnapshotItem{
				HourNumber: h.Number,
				ProductID:  e.ProductID,
				Quantity:   e.Quantity,
				Source:     e.Source,
				SortOrder:  e.SortOrder,
			}
			if e.FluidMl != nil {
				ml := *e.FluidMl
				item.FluidMl = &ml
			}
			s.Items = append(s.Items, item)
		}
		if h.WaterMl > 0 || h.WaterSource != SourcePersonal {
			s.Water = append(s.Water, SnapshotWater{HourNumber: h.Number, WaterMl: h.WaterMl, Source: h.WaterSource})
		}
	}
	return s
}
