package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelplanner/internal/catalog"
	"fuelplanner/internal/metrics"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/timeline"
	"fuelplanner/internal/totals"
	"fuelplanner/internal/validate"
)

var testProducts = []catalog.Product{
	{ID: "maurten-gel-100", Brand: "Maurten", Name: "Gel 100", Category: catalog.CategoryGel, CarbsGrams: 25, SodiumMg: 20},
	{ID: "gu-roctane-caf", Brand: "GU", Name: "Roctane Gel", Category: catalog.CategoryGel, CarbsGrams: 21, SodiumMg: 125, CaffeineMg: 35},
	{ID: "skratch-mix", Brand: "Skratch", Name: "Sport Hydration Mix", Category: catalog.CategoryDrinkMix, CarbsGrams: 20, SodiumMg: 380, WaterContentMl: 500},
}

func TestFormatHour(t *testing.T) {
	fluid := 750.0
	h := timeline.Hour{
		Number: 2, Elapsed: "1:00-2:00", StartTime: "07:00", EndTime: "08:00",
		Entries: []timeline.Entry{
			{ProductID: "maurten-gel-100", Quantity: 2, Source: timeline.SourcePersonal},
			{ProductID: "skratch-mix", Quantity: 1, FluidMl: &fluid, Source: timeline.SourceDropBag},
			{ProductID: "retired-bar", Quantity: 1, Source: timeline.SourcePersonal},
		},
		WaterMl:     250,
		WaterSource: timeline.SourceAidStation,
		Totals:      timeline.Totals{Carbs: 70, Fluid: 1000, Sodium: 420},
	}
	res := validate.HourResult{Carbs: validate.StatusOnTarget, Fluid: validate.StatusAbove, Sodium: validate.StatusBelow, Warnings: []string{"too much"}}

	out := formatHour(h, catalog.NewIndex(testProducts), res)

	assert.Contains(t, out, "*Hour 2* (1:00-2:00, 07:00-08:00)")
	assert.Contains(t, out, "1. 2x Maurten Gel 100\n")
	assert.Contains(t, out, "2. 1x Skratch Sport Hydration Mix in 750 ml [drop bag]")
	assert.Contains(t, out, "3. 1x retired-bar")
	assert.Contains(t, out, "Water: 250 ml [aid station]")
	assert.Contains(t, out, "✅ Carbs 70 g  🔺 Fluid 1000 ml  🔻 Sodium 420 mg")
	assert.Contains(t, out, "⚠️ too much")
	assert.NotContains(t, out, "_", "underscores break Markdown")
}

func TestFormatEmptyHour(t *testing.T) {
	out := formatHour(timeline.Hour{Number: 1, Elapsed: "0:00-1:00"}, catalog.NewIndex(nil), validate.HourResult{})
	assert.Contains(t, out, "_Nothing planned_")
	assert.NotContains(t, out, "Water")
}

func TestFormatTargets(t *testing.T) {
	assert.Contains(t, formatTargets(nutrition.HourlyTargets{}, nutrition.TotalTargets{}), "not configured")

	h := nutrition.HourlyTargets{CarbsGramsTarget: 80, CarbsGramsMin: 60, CarbsGramsMax: 90, FluidMlTarget: 700}
	out := formatTargets(h, nutrition.TotalTargets{Hours: 4, HourlyTargets: nutrition.HourlyTargets{CarbsGramsTarget: 320, FluidMlTarget: 2800}})
	assert.Contains(t, out, "Carbs: 80 g (60-90)")
	assert.Contains(t, out, "*Race total (4 h)*: 320 g carbs, 2800 ml fluid")
}

func TestFormatTotals(t *testing.T) {
	rt := totals.RunningTotals{
		Carbs:      totals.Progress{Current: 150, Target: 300, Percent: 50},
		CaffeineMg: 70,
	}
	out := formatTotals(rt, []string{"Sodium is low"}, nil)
	assert.Contains(t, out, "Carbs: 150 / 300 g (50.0%)")
	assert.Contains(t, out, "Caffeine: 70 mg")
	assert.Contains(t, out, "• Sodium is low")
	assert.NotContains(t, out, "Looking good")
}

func TestProductKeyboard(t *testing.T) {
	kb := productKeyboard(4, testProducts)

	require.Len(t, kb.InlineKeyboard, 3)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)

	first := kb.InlineKeyboard[0][0]
	require.NotNil(t, first.CallbackData)
	assert.Equal(t, "add|4|maurten-gel-100", *first.CallbackData)

	last := kb.InlineKeyboard[2][0]
	assert.Equal(t, "sel|4", *last.CallbackData)

	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			assert.LessOrEqual(t, len(*btn.CallbackData), 64)
		}
	}
}

func TestFormatProducts(t *testing.T) {
	out := formatProducts(testProducts, []string{"skratch-mix"})
	assert.Contains(t, out, "⭐ Skratch Sport Hydration Mix")
	assert.Contains(t, out, "21 g carbs, 125 mg sodium, 35 mg caffeine")
	assert.Equal(t, 1, strings.Count(out, "⭐"))

	assert.Contains(t, formatProducts(nil, nil), "No products")
}

func TestFormatMetrics(t *testing.T) {
	out := formatMetrics([]metrics.DailyUsage{{Date: "2026-10-17", TotalPrompt: 900, TotalCompletion: 100, TotalExecution: 2}}, metrics.SysHealth{Goroutines: 12, DataDiskSize: "3.1 MiB"})
	assert.Contains(t, out, "*2026-10-17*: 1000 tokens (2 briefings)")
	assert.Contains(t, out, "Goroutines: 12")
	assert.Contains(t, out, "Disk Data: 3.1 MiB")
}
