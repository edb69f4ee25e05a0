package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fuelplanner/internal/catalog"
	"fuelplanner/internal/metrics"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/timeline"
	"fuelplanner/internal/totals"
	"fuelplanner/internal/validate"
)

const keyboardColumns = 2

var statusIcons = map[validate.Status]string{
	validate.StatusBelow:    "🔻",
	validate.StatusOnTarget: "✅",
	validate.StatusAbove:    "🔺",
}

func formatTargets(h nutrition.HourlyTargets, t nutrition.TotalTargets) string {
	if !h.Configured() {
		return "⚠️ Targets are not configured. Check duration and weight."
	}
	var sb strings.Builder
	sb.WriteString("🎯 *Hourly targets*\n")
	fmt.Fprintf(&sb, "• Carbs: %.0f g (%.0f-%.0f)\n", h.CarbsGramsTarget, h.CarbsGramsMin, h.CarbsGramsMax)
	fmt.Fprintf(&sb, "• Fluid: %.0f ml (%.0f-%.0f)\n", h.FluidMlTarget, h.FluidMlMin, h.FluidMlMax)
	fmt.Fprintf(&sb, "• Sodium: %.0f mg (%.0f-%.0f)\n", h.SodiumMgTarget, h.SodiumMgMin, h.SodiumMgMax)
	fmt.Fprintf(&sb, "• Calories: %.0f kcal\n", h.CaloriesTarget)
	fmt.Fprintf(&sb, "\n🏁 *Race total (%d h)*: %.0f g carbs, %.0f ml fluid, %.0f mg sodium",
		t.Hours, t.CarbsGramsTarget, t.FluidMlTarget, t.SodiumMgTarget)
	return sb.String()
}

func formatHour(h timeline.Hour, lookup catalog.Lookup, res validate.HourResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏱ *Hour %d* (%s", h.Number, h.Elapsed)
	if h.StartTime != "" {
		fmt.Fprintf(&sb, ", %s-%s", h.StartTime, h.EndTime)
	}
	sb.WriteString(")\n")

	if len(h.Entries) == 0 {
		sb.WriteString("_Nothing planned_\n")
	}
	for i, e := range h.Entries {
		name := e.ProductID
		if p, ok := lookup.Product(e.ProductID); ok {
			name = p.Brand + " " + p.Name
		}
		fmt.Fprintf(&sb, "%d. %dx %s", i+1, e.Quantity, name)
		if e.FluidMl != nil {
			fmt.Fprintf(&sb, " in %.0f ml", *e.FluidMl)
		}
		if e.Source != timeline.SourcePersonal {
			fmt.Fprintf(&sb, " [%s]", sourceLabel(e.Source))
		}
		sb.WriteString("\n")
	}
	if h.WaterMl > 0 {
		fmt.Fprintf(&sb, "💧 Water: %.0f ml", h.WaterMl)
		if h.WaterSource != timeline.SourcePersonal {
			fmt.Fprintf(&sb, " [%s]", sourceLabel(h.WaterSource))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n%s Carbs %.0f g  %s Fluid %.0f ml  %s Sodium %.0f mg",
		statusIcons[res.Carbs], h.Totals.Carbs,
		statusIcons[res.Fluid], h.Totals.Fluid,
		statusIcons[res.Sodium], h.Totals.Sodium)
	for _, w := range res.Warnings {
		fmt.Fprintf(&sb, "\n⚠️ %s", w)
	}
	return sb.String()
}

// sourceLabel keeps underscores out of Markdown messages.
func sourceLabel(s timeline.Source) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func formatOverview(hours []timeline.Hour, report validate.Report) string {
	var sb strings.Builder
	sb.WriteString("📋 *Plan*\n")
	for i, h := range hours {
		status := validate.StatusOnTarget
		if i < len(report.Hours) {
			status = report.Hours[i].Overall
		}
		fmt.Fprintf(&sb, "%s Hour %d: %.0f g carbs, %.0f ml fluid\n", statusIcons[status], h.Number, h.Totals.Carbs, h.Totals.Fluid)
	}
	return sb.String()
}

func formatTotals(rt totals.RunningTotals, warnings, recommendations []string) string {
	var sb strings.Builder
	sb.WriteString("📊 *Running totals*\n")
	line := func(label, unit string, p totals.Progress) {
		fmt.Fprintf(&sb, "• %s: %.0f / %.0f %s (%.1f%%)\n", label, p.Current, p.Target, unit, p.Percent)
	}
	line("Carbs", "g", rt.Carbs)
	line("Fluid", "ml", rt.Fluid)
	line("Sodium", "mg", rt.Sodium)
	line("Calories", "kcal", rt.Calories)
	if rt.CaffeineMg > 0 {
		fmt.Fprintf(&sb, "• Caffeine: %.0f mg\n", rt.CaffeineMg)
	}

	if len(warnings) > 0 {
		sb.WriteString("\n⚠️ *Warnings*\n")
		for _, w := range warnings {
			fmt.Fprintf(&sb, "• %s\n", w)
		}
	}
	if len(recommendations) > 0 {
		sb.WriteString("\n👍 *Looking good*\n")
		for _, r := range recommendations {
			fmt.Fprintf(&sb, "• %s\n", r)
		}
	}
	return sb.String()
}

func formatProducts(products []catalog.Product, favorites []string) string {
	if len(products) == 0 {
		return "_No products match the current filters._"
	}
	fav := make(map[string]bool, len(favorites))
	for _, id := range favorites {
		fav[id] = true
	}

	var sb strings.Builder
	sb.WriteString("🛍 *Products*\n")
	for _, p := range products {
		star := ""
		if fav[p.ID] {
			star = "⭐ "
		}
		fmt.Fprintf(&sb, "• %s%s %s (`%s`): %.0f g carbs, %.0f mg sodium", star, p.Brand, p.Name, p.ID, p.CarbsGrams, p.SodiumMg)
		if p.CaffeineMg > 0 {
			fmt.Fprintf(&sb, ", %.0f mg caffeine", p.CaffeineMg)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// productKeyboard offers one add button per product for the given hour.
func productKeyboard(hourIndex int, products []catalog.Product) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, p := range products {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("➕ "+p.Name, addCallback(hourIndex, p.ID)))
		if len(row) == keyboardColumns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖️ Deselect hour", selectCallback(hourIndex)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent briefing activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d briefings)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
