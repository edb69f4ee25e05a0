package timeline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelplanner/internal/catalog"
	"fuelplanner/internal/nutrition"
)

var (
	gel = catalog.Product{ID: "maurten-gel-100", Brand: "Maurten", Name: "Gel 100", Category: catalog.CategoryGel,
		CarbsGrams: 25, Calories: 100, SodiumMg: 20, GlucoseFructoseRatio: "1:0.8"}
	cafGel = catalog.Product{ID: "gu-roctane-caf", Brand: "GU", Name: "Roctane Gel", Category: catalog.CategoryGel,
		CarbsGrams: 21, Calories: 100, SodiumMg: 125, CaffeineMg: 35}
	mix = catalog.Product{ID: "skratch-mix", Brand: "Skratch", Name: "Sport Hydration Mix", Category: catalog.CategoryDrinkMix,
		CarbsGrams: 20, Calories: 80, SodiumMg: 380, WaterContentMl: 500}
	lookup = catalog.NewIndex([]catalog.Product{gel, cafGel, mix})
)

func newTimeline(minutes int, start string) *Timeline {
	return New(nutrition.RaceContext{DurationMinutes: minutes, StartTimeOfDay: start}, lookup)
}

func TestNewNumbersHoursContiguously(t *testing.T) {
	for _, minutes := range []int{1, 60, 61, 300, 1440} {
		tl := newTimeline(minutes, "")
		want := (minutes + 59) / 60
		hours := tl.Hours()
		require.Len(t, hours, want)
		for i, h := range hours {
			assert.Equal(t, i+1, h.Number)
		}
	}

	assert.Equal(t, 0, newTimeline(0, "").Len())
	assert.Equal(t, 0, newTimeline(-30, "").Len())
}

func TestHourClockLabels(t *testing.T) {
	tl := newTimeline(180, "22:30")
	hours := tl.Hours()
	assert.Equal(t, "22:30", hours[0].StartTime)
	assert.Equal(t, "23:30", hours[0].EndTime)
	assert.Equal(t, "00:30", hours[1].EndTime)
	assert.Equal(t, "1:00-2:00", hours[1].Elapsed)

	noClock := newTimeline(120, "")
	h, ok := noClock.Hour(0)
	require.True(t, ok)
	assert.Empty(t, h.StartTime)
	assert.Equal(t, "0:00-1:00", h.Elapsed)

	bad := newTimeline(60, "noon")
	h, _ = bad.Hour(0)
	assert.Empty(t, h.StartTime)
}

func TestTotalsFoldOverEntries(t *testing.T) {
	tl := newTimeline(120, "")
	require.True(t, tl.AddProduct(0, gel, SourcePersonal))
	require.True(t, tl.AddProduct(0, cafGel, SourceAidStation))
	require.True(t, tl.UpdateQuantity(0, 0, 3))

	h, _ := tl.Hour(0)
	assert.Equal(t, 25.0*3+21.0, h.Totals.Carbs)
	assert.Equal(t, 20.0*3+125.0, h.Totals.Sodium)
	assert.Equal(t, 35.0, h.Totals.Caffeine)
	assert.Equal(t, 400.0, h.Totals.Calories)

	before := tl.Hours()
	tl.recompute()
	tl.recompute()
	assert.Equal(t, before, tl.Hours())
}

func TestAddThenRemoveRestoresTotals(t *testing.T) {
	tl := newTimeline(120, "")
	tl.AddProduct(1, gel, SourcePersonal)
	tl.SetWater(1, 250)
	before, _ := tl.Hour(1)

	require.True(t, tl.AddProduct(1, mix, SourceDropBag))
	after, _ := tl.Hour(1)
	assert.NotEqual(t, before.Totals, after.Totals)

	require.True(t, tl.RemoveProduct(1, 1))
	restored, _ := tl.Hour(1)
	assert.Equal(t, before.Totals, restored.Totals)
	assert.Equal(t, before.CarbCeilingG, restored.CarbCeilingG)
}

func TestUpdateQuantityClampsToOne(t *testing.T) {
	tl := newTimeline(60, "")
	tl.AddProduct(0, gel, "")

	for _, qty := range []int{0, -5} {
		require.True(t, tl.UpdateQuantity(0, 0, qty))
		h, _ := tl.Hour(0)
		assert.Equal(t, 1, h.Entries[0].Quantity)
	}
}

func TestUpdateFluidOnlyForDrinkMix(t *testing.T) {
	tl := newTimeline(60, "")
	tl.AddProduct(0, gel, SourcePersonal)
	tl.AddProduct(0, mix, SourcePersonal)

	assert.False(t, tl.UpdateFluid(0, 0, 300))
	h, _ := tl.Hour(0)
	assert.Nil(t, h.Entries[0].FluidMl)

	tl.UpdateQuantity(0, 1, 2)
	h, _ = tl.Hour(0)
	assert.Equal(t, 1000.0, h.Totals.Fluid)

	require.True(t, tl.UpdateFluid(0, 1, 750))
	h, _ = tl.Hour(0)
	assert.Equal(t, 750.0, h.Totals.Fluid)
	assert.Equal(t, 65.0, h.Totals.Carbs)
}

func TestSetWaterClampsAndCounts(t *testing.T) {
	tl := newTimeline(60, "")
	require.True(t, tl.SetWater(0, -100))
	h, _ := tl.Hour(0)
	assert.Equal(t, 0.0, h.WaterMl)

	tl.SetWater(0, 400)
	h, _ = tl.Hour(0)
	assert.Equal(t, 400.0, h.Totals.Fluid)
}

func TestNonFiniteMillilitresClampToZero(t *testing.T) {
	tests := []struct {
		name string
		ml   float64
	}{
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newTimeline(120, "")
			require.True(t, tl.AddProduct(0, mix, SourcePersonal))
			require.True(t, tl.SetWater(1, tt.ml))
			require.True(t, tl.UpdateFluid(0, 0, tt.ml))
			nan := math.NaN()
			require.True(t, tl.Restore(1, Entry{ProductID: mix.ID, Quantity: 1, FluidMl: &nan}))

			hours := tl.Hours()
			assert.Equal(t, 0.0, hours[1].WaterMl)
			assert.Equal(t, 0.0, *hours[0].Entries[0].FluidMl)
			assert.Equal(t, 0.0, *hours[1].Entries[0].FluidMl)
			assert.Equal(t, 0.0, tl.Totals().Fluid)

			_, err := json.Marshal(tl.Snapshot())
			require.NoError(t, err)
			_, err = json.Marshal(tl.Export())
			require.NoError(t, err)
		})
	}
}

func TestAddAfterRestoreKeepsOrder(t *testing.T) {
	tl := newTimeline(60, "")
	require.True(t, tl.Restore(0, Entry{ProductID: gel.ID, Quantity: 1, SortOrder: 0}))
	require.True(t, tl.Restore(0, Entry{ProductID: cafGel.ID, Quantity: 1, SortOrder: 2}))
	require.True(t, tl.AddProduct(0, mix, SourcePersonal))

	h, _ := tl.Hour(0)
	require.Len(t, h.Entries, 3)
	assert.Equal(t, 3, h.Entries[2].SortOrder)

	reloaded := newTimeline(60, "")
	for _, e := range h.Entries {
		require.True(t, reloaded.Restore(0, e))
	}
	got, _ := reloaded.Hour(0)
	var ids []string
	for _, e := range got.Entries {
		ids = append(ids, e.ProductID)
	}
	assert.Equal(t, []string{gel.ID, cafGel.ID, mix.ID}, ids)
}

func TestOutOfRangeIsNoOp(t *testing.T) {
	tl := newTimeline(120, "")
	v := tl.Version()

	assert.False(t, tl.AddProduct(2, gel, SourcePersonal))
	assert.False(t, tl.AddProduct(-1, gel, SourcePersonal))
	assert.False(t, tl.RemoveProduct(0, 0))
	assert.False(t, tl.UpdateQuantity(0, 3, 2))
	assert.False(t, tl.SetWater(5, 100))
	assert.Equal(t, v, tl.Version())
}

func TestMissingProductContributesNothing(t *testing.T) {
	tl := New(nutrition.RaceContext{DurationMinutes: 60}, catalog.NewIndex(nil))
	require.True(t, tl.AddProduct(0, gel, SourcePersonal))
	h, _ := tl.Hour(0)
	assert.Equal(t, Totals{}, h.Totals)
	require.Len(t, tl.Export()[0].Products, 1)
	assert.Equal(t, gel.ID, tl.Export()[0].Products[0].Name)
}

func TestRestoreKeepsQuantity(t *testing.T) {
	tl := newTimeline(180, "")
	require.True(t, tl.Restore(1, Entry{ProductID: gel.ID, Quantity: 3, SortOrder: 0}))

	h, _ := tl.Hour(1)
	require.Len(t, h.Entries, 1)
	assert.Equal(t, 3, h.Entries[0].Quantity)
	assert.Equal(t, SourcePersonal, h.Entries[0].Source)
	assert.Equal(t, 75.0, h.Totals.Carbs)
}

func TestCarbCeilingFollowsProductMix(t *testing.T) {
	tl := newTimeline(120, "")
	tl.AddProduct(0, gel, SourcePersonal)
	tl.AddProduct(1, cafGel, SourcePersonal)

	dual, _ := tl.Hour(0)
	single, _ := tl.Hour(1)
	assert.Equal(t, nutrition.MultiplePathwayCeilingG, dual.CarbCeilingG)
	assert.Equal(t, nutrition.SinglePathwayCeilingG, single.CarbCeilingG)
}

func TestHoursReturnsCopies(t *testing.T) {
	tl := newTimeline(60, "")
	tl.AddProduct(0, gel, SourcePersonal)
	hours := tl.Hours()
	hours[0].Entries[0].Quantity = 99

	h, _ := tl.Hour(0)
	assert.Equal(t, 1, h.Entries[0].Quantity)
}

func TestResetClearsEverything(t *testing.T) {
	tl := newTimeline(120, "")
	tl.AddProduct(0, gel, SourcePersonal)
	tl.SetWater(1, 300)
	tl.Reset()

	assert.Equal(t, Totals{}, tl.Totals())
	assert.Empty(t, tl.Snapshot().Items)
	assert.Empty(t, tl.Snapshot().Water)
	assert.Equal(t, 2, tl.Len())
}

func TestExportShape(t *testing.T) {
	tl := newTimeline(60, "07:00")
	tl.AddProduct(0, cafGel, SourcePersonal)
	tl.UpdateQuantity(0, 0, 2)
	tl.SetWater(0, 500)

	data, err := json.Marshal(tl.Export())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	hour := decoded[0]
	assert.Equal(t, 1.0, hour["hourNumber"])
	assert.Equal(t, "07:00", hour["startTime"])
	assert.Equal(t, "08:00", hour["endTime"])
	assert.Equal(t, 500.0, hour["waterMl"])

	products := hour["products"].([]any)
	p := products[0].(map[string]any)
	assert.Equal(t, "Roctane Gel", p["name"])
	assert.Equal(t, "GU", p["brand"])
	assert.Equal(t, 2.0, p["quantity"])
	assert.Equal(t, 42.0, p["carbs"])
	assert.Equal(t, 70.0, p["caffeine"])
	assert.Contains(t, hour, "totals")
}

func TestSnapshotIsCanonical(t *testing.T) {
	a := newTimeline(120, "")
	a.AddProduct(0, gel, SourcePersonal)
	a.UpdateQuantity(0, 0, 2)
	a.SetWater(1, 200)

	b := newTimeline(120, "")
	for _, item := range a.Snapshot().Items {
		b.Restore(item.HourNumber-1, Entry{ProductID: item.ProductID, Quantity: item.Quantity, Source: item.Source, SortOrder: item.SortOrder})
	}
	b.SetWater(1, 200)

	assert.Equal(t, a.Snapshot(), b.Snapshot())
}
