package packing

import (
	"fmt"
	"sort"
	"strings"

	"fuelplanner/internal/catalog"
	"fuelplanner/internal/timeline"
)

// Line is one product to pack for one pickup point.
type Line struct {
	Source    timeline.Source `json:"source"`
	ProductID string          `json:"product_id"`
	Brand     string          `json:"brand"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Hours     []int           `json:"hours"`
}

// List is everything the athlete has to carry or stage.
type List struct {
	Lines   []Line  `json:"lines"`
	WaterMl float64 `json:"water_ml"`
}

var sourceOrder = map[timeline.Source]int{
	timeline.SourcePersonal:   0,
	timeline.SourceDropBag:    1,
	timeline.SourceAidStation: 2,
}

// Build sums quantities per product per source across all hours.
func Build(hours []timeline.Hour, lookup catalog.Lookup) List {
	type key struct {
		source timeline.Source
		id     string
	}
	byKey := map[key]*Line{}
	var list List

	for _, h := range hours {
		if h.WaterSource == timeline.SourcePersonal {
			list.WaterMl += h.WaterMl
		}
		for _, e := range h.Entries {
			k := key{e.Source, e.ProductID}
			line, ok := byKey[k]
			if !ok {
				line = &Line{Source: e.Source, ProductID: e.ProductID, Name: e.ProductID}
				if p, found := lookup.Product(e.ProductID); found {
					line.Brand, line.Name = p.Brand, p.Name
				}
				byKey[k] = line
			}
			line.Quantity += e.Quantity
			if n := len(line.Hours); n == 0 || line.Hours[n-1] != h.Number {
				line.Hours = append(line.Hours, h.Number)
			}
		}
	}

	list.Lines = make([]Line, 0, len(byKey))
	for _, line := range byKey {
		list.Lines = append(list.Lines, *line)
	}
	sort.Slice(list.Lines, func(i, j int) bool {
		a, b := list.Lines[i], list.Lines[j]
		if a.Source != b.Source {
			return sourceOrder[a.Source] < sourceOrder[b.Source]
		}
		if !strings.EqualFold(a.Brand, b.Brand) {
			return strings.ToLower(a.Brand) < strings.ToLower(b.Brand)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return list
}

// Text renders the list grouped by source, one line per product.
func (l List) Text() string {
	var sb strings.Builder
	var current timeline.Source
	for i, line := range l.Lines {
		if i == 0 || line.Source != current {
			current = line.Source
			fmt.Fprintf(&sb, "%s:\n", sourceLabel(current))
		}
		name := strings.TrimSpace(line.Brand + " " + line.Name)
		fmt.Fprintf(&sb, "  %dx %s (hours %s)\n", line.Quantity, name, joinInts(line.Hours))
	}
	if l.WaterMl > 0 {
		fmt.Fprintf(&sb, "Water to carry: %.0f ml\n", l.WaterMl)
	}
	return sb.String()
}

func sourceLabel(s timeline.Source) string {
	switch s {
	case timeline.SourceAidStation:
		return "Aid stations"
	case timeline.SourceDropBag:
		return "Drop bag"
	default:
		return "Carry"
	}
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
