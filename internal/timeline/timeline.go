package timeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"fuelplanner/internal/catalog"
	"fuelplanner/internal/nutrition"
)

// Source records where the athlete picks up a product during the race.
type Source string

const (
	SourcePersonal   Source = "personal"
	SourceAidStation Source = "aid_station"
	SourceDropBag    Source = "drop_bag"
)

// Valid reports whether s is a known provenance.
func (s Source) Valid() bool {
	switch s {
	case SourcePersonal, SourceAidStation, SourceDropBag:
		return true
	}
	return false
}

func (s Source) orDefault() Source {
	if s.Valid() {
		return s
	}
	return SourcePersonal
}

// Entry is one product placed in an hour. Multiplicity lives in Quantity,
// never in repeated entries.
type Entry struct {
	ID        uuid.UUID
	ProductID string
	Quantity  int
	// FluidMl overrides the entry's total fluid. Only drink mixes carry it.
	FluidMl   *float64
	Source    Source
	SortOrder int
}

// Totals are derived from an hour's entries and loose water.
type Totals struct {
	Carbs    float64 `json:"carbs"`
	Fluid    float64 `json:"fluid"`
	Sodium   float64 `json:"sodium"`
	Caffeine float64 `json:"caffeine"`
	Calories float64 `json:"calories"`
}

// Add returns the field-wise sum.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Carbs:    t.Carbs + o.Carbs,
		Fluid:    t.Fluid + o.Fluid,
		Sodium:   t.Sodium + o.Sodium,
		Caffeine: t.Caffeine + o.Caffeine,
		Calories: t.Calories + o.Calories,
	}
}

// Hour is one race hour. Totals and CarbCeilingG are derived and refreshed
// by the Timeline after every mutation.
type Hour struct {
	Number      int
	StartTime   string
	EndTime     string
	Elapsed     string
	Entries     []Entry
	WaterMl     float64
	WaterSource Source

	Totals       Totals
	CarbCeilingG float64
}

// Timeline owns hours 1..D of one plan. It is not safe for concurrent use;
// callers serialize access.
type Timeline struct {
	lookup catalog.Lookup
	hours  []Hour

	version  uint64
	computed uint64
}

// New builds an empty timeline sized from the race duration. An unconfigured
// race yields zero hours.
func New(race nutrition.RaceContext, lookup catalog.Lookup) *Timeline {
	n := race.DurationHours()
	start, hasStart := parseClock(race.StartTimeOfDay)

	t := &Timeline{lookup: lookup, hours: make([]Hour, n)}
	for i := range t.hours {
		h := Hour{
			Number:      i + 1,
			Elapsed:     fmt.Sprintf("%d:00-%d:00", i, i+1),
			WaterSource: SourcePersonal,
			Entries:     []Entry{},
		}
		if hasStart {
			h.StartTime = clock(start, i)
			h.EndTime = clock(start, i+1)
		}
		t.hours[i] = h
	}
	t.touch()
	return t
}

func parseClock(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	ts, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return time.Duration(ts.Hour())*time.Hour + time.Duration(ts.Minute())*time.Minute, true
}

func clock(start time.Duration, offsetHours int) string {
	d := (start + time.Duration(offsetHours)*time.Hour) % (24 * time.Hour)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Len is the number of hours.
func (t *Timeline) Len() int { return len(t.hours) }

// Version increases on every applied mutation.
func (t *Timeline) Version() uint64 { return t.version }

// Hours returns a copy of every hour with current totals.
func (t *Timeline) Hours() []Hour {
	t.ensureFresh()
	out := make([]Hour, len(t.hours))
	for i, h := range t.hours {
		out[i] = h.clone()
	}
	return out
}

// Hour returns a copy of the hour at index (0-based).
func (t *Timeline) Hour(index int) (Hour, bool) {
	if !t.inRange(index) {
		return Hour{}, false
	}
	t.ensureFresh()
	return t.hours[index].clone(), true
}

// Totals sums every hour.
func (t *Timeline) Totals() Totals {
	t.ensureFresh()
	var sum Totals
	for _, h := range t.hours {
		sum = sum.Add(h.Totals)
	}
	return sum
}

// AddProduct appends a new entry with quantity 1. Out of range indexes are ignored.
func (t *Timeline) AddProduct(hourIndex int, p catalog.Product, source Source) bool {
	if !t.inRange(hourIndex) || p.ID == "" {
		return false
	}
	h := &t.hours[hourIndex]
	h.Entries = append(h.Entries, Entry{
		ID:        uuid.New(),
		ProductID: p.ID,
		Quantity:  1,
		Source:    source.orDefault(),
		SortOrder: nextSortOrder(h.Entries),
	})
	t.touch()
	return true
}

// Restore places a saved entry into an hour, keeping its quantity.
func (t *Timeline) Restore(hourIndex int, e Entry) bool {
	if !t.inRange(hourIndex) || e.ProductID == "" {
		return false
	}
	h := &t.hours[hourIndex]
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Quantity = max(e.Quantity, 1)
	e.Source = e.Source.orDefault()
	if e.FluidMl != nil {
		ml := nonNegative(*e.FluidMl)
		e.FluidMl = &ml
	}
	h.Entries = append(h.Entries, e)
	sortEntries(h.Entries)
	t.touch()
	return true
}

// RemoveProduct drops an entry and renumbers the rest.
func (t *Timeline) RemoveProduct(hourIndex, entryIndex int) bool {
	if !t.entryInRange(hourIndex, entryIndex) {
		return false
	}
	h := &t.hours[hourIndex]
	h.Entries = append(h.Entries[:entryIndex], h.Entries[entryIndex+1:]...)
	for i := range h.Entries {
		h.Entries[i].SortOrder = i
	}
	t.touch()
	return true
}

// UpdateQuantity sets an entry's quantity, clamped to at least 1.
func (t *Timeline) UpdateQuantity(hourIndex, entryIndex, qty int) bool {
	if !t.entryInRange(hourIndex, entryIndex) {
		return false
	}
	t.hours[hourIndex].Entries[entryIndex].Quantity = max(qty, 1)
	t.touch()
	return true
}

// UpdateFluid overrides the fluid an entry contributes. Only drink mixes accept it.
func (t *Timeline) UpdateFluid(hourIndex, entryIndex int, ml float64) bool {
	if !t.entryInRange(hourIndex, entryIndex) {
		return false
	}
	e := &t.hours[hourIndex].Entries[entryIndex]
	p, ok := t.lookup.Product(e.ProductID)
	if !ok || p.Category != catalog.CategoryDrinkMix {
		return false
	}
	ml = nonNegative(ml)
	e.FluidMl = &ml
	t.touch()
	return true
}

// SetWater sets loose water for an hour, clamped to at least 0.
func (t *Timeline) SetWater(hourIndex int, ml float64) bool {
	if !t.inRange(hourIndex) {
		return false
	}
	t.hours[hourIndex].WaterMl = nonNegative(ml)
	t.touch()
	return true
}

// SetWaterSource records where the hour's water comes from.
func (t *Timeline) SetWaterSource(hourIndex int, source Source) bool {
	if !t.inRange(hourIndex) {
		return false
	}
	t.hours[hourIndex].WaterSource = source.orDefault()
	t.touch()
	return true
}

// nonNegative clamps millilitres to at least 0. NaN and infinities become 0.
func nonNegative(ml float64) float64 {
	if math.IsNaN(ml) || math.IsInf(ml, 0) || ml < 0 {
		return 0
	}
	return ml
}

func nextSortOrder(entries []Entry) int {
	next := 0
	for _, e := range entries {
		next = max(next, e.SortOrder+1)
	}
	return next
}

// Reset clears every entry and all water, keeping the hours.
func (t *Timeline) Reset() {
	for i := range t.hours {
		t.hours[i].Entries = []Entry{}
		t.hours[i].WaterMl = 0
		t.hours[i].WaterSource = SourcePersonal
	}
	t.touch()
}

func (t *Timeline) inRange(hourIndex int) bool {
	return hourIndex >= 0 && hourIndex < len(t.hours)
}

func (t *Timeline) entryInRange(hourIndex, entryIndex int) bool {
	return t.inRange(hourIndex) && entryIndex >= 0 && entryIndex < len(t.hours[hourIndex].Entries)
}

func (t *Timeline) touch() {
	t.version++
	t.recompute()
}

func (t *Timeline) ensureFresh() {
	if t.computed != t.version {
		t.recompute()
	}
}

// recompute is a pure fold over entries; running it twice changes nothing.
func (t *Timeline) recompute() {
	for i := range t.hours {
		h := &t.hours[i]
		var sum Totals
		var single, multiple float64
		for _, e := range h.Entries {
			p, ok := t.lookup.Product(e.ProductID)
			if !ok {
				continue
			}
			sum = sum.Add(EntryTotals(p, e))
			switch p.Pathway() {
			case nutrition.PathwaySingle:
				single += p.CarbsGrams * float64(e.Quantity)
			case nutrition.PathwayMultiple:
				multiple += p.CarbsGrams * float64(e.Quantity)
			}
		}
		sum.Fluid += h.WaterMl
		h.Totals = sum
		h.CarbCeilingG = nutrition.MixCeiling(single, multiple)
	}
	t.computed = t.version
}

// EntryTotals is what one entry contributes to its hour.
func EntryTotals(p catalog.Product, e Entry) Totals {
	q := float64(e.Quantity)
	fluid := p.WaterContentMl * q
	if e.FluidMl != nil && p.Category == catalog.CategoryDrinkMix {
		fluid = *e.FluidMl
	}
	return Totals{
		Carbs:    p.CarbsGrams * q,
		Fluid:    fluid,
		Sodium:   p.SodiumMg * q,
		Caffeine: p.CaffeineMg * q,
		Calories: p.Calories * q,
	}
}

func (h Hour) clone() Hour {
	entries := make([]Entry, len(h.Entries))
	for i, e := range h.Entries {
		if e.FluidMl != nil {
			ml := *e.FluidMl
			e.FluidMl = &ml
		}
		entries[i] = e
	}
	h.Entries = entries
	return h
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortOrder < entries[j].SortOrder
	})
}
