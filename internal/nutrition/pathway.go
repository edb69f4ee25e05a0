package nutrition

import (
	"strconv"
	"strings"
)

// Pathway is the number of intestinal sugar transporters a product engages.
type Pathway int

const (
	PathwayNone Pathway = iota
	// PathwaySingle covers glucose/maltodextrin-only products (SGLT1).
	PathwaySingle
	// PathwayMultiple covers glucose+fructose blends (SGLT1 + GLUT5).
	PathwayMultiple
)

func (p Pathway) String() string {
	switch p {
	case PathwaySingle:
		return "single"
	case PathwayMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// Absorption ceilings in grams of carbohydrate per hour.
const (
	SinglePathwayCeilingG   = 60.0
	MultiplePathwayCeilingG = 90.0
)

// SugarProfile is the subset of a product label that decides its pathway.
type SugarProfile struct {
	CarbsGrams           float64
	GlucoseGrams         *float64
	FructoseGrams        *float64
	MaltodextrinGrams    *float64
	GlucoseFructoseRatio string
}

// ParseRatio reads a glucose:fructose label such as "2:1" or "1:0.8".
func ParseRatio(label string) (glucose, fructose float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(label), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	g, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || g < 0 {
		return 0, 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || f < 0 {
		return 0, 0, false
	}
	return g, f, true
}

// ClassifyPathway prefers the ratio label and falls back to the sugar breakdown.
func ClassifyPathway(p SugarProfile) Pathway {
	if p.CarbsGrams <= 0 {
		return PathwayNone
	}
	if g, f, ok := ParseRatio(p.GlucoseFructoseRatio); ok {
		if g > 0 && f > 0 {
			return PathwayMultiple
		}
		return PathwaySingle
	}
	glucoseSide := value(p.GlucoseGrams) + value(p.MaltodextrinGrams)
	if glucoseSide > 0 && value(p.FructoseGrams) > 0 {
		return PathwayMultiple
	}
	return PathwaySingle
}

// IsBalancedRatio reports a glucose:fructose blend between 2:1 and 1:1,
// the range associated with the best oxidation rates.
func IsBalancedRatio(label string) bool {
	g, f, ok := ParseRatio(label)
	if !ok || g <= 0 || f <= 0 {
		return false
	}
	r := f / g
	return r >= 0.5 && r <= 1.0
}

// MixCeiling blends the two ceilings by the share of carbohydrate that comes
// from multiple-pathway products in an hour.
func MixCeiling(singleCarbs, multipleCarbs float64) float64 {
	total := singleCarbs + multipleCarbs
	if total <= 0 {
		return SinglePathwayCeilingG
	}
	share := multipleCarbs / total
	return SinglePathwayCeilingG + (MultiplePathwayCeilingG-SinglePathwayCeilingG)*share
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
