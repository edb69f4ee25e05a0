package catalog

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	numberPattern  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)`)
	ratioPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*:\s*(\d+(?:\.\d+)?)`)
	nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParseLabel drafts a catalog product from a brand page's nutrition-facts
// table. Rows are read as label/value pairs from th/td or td/td cells.
func ParseLabel(r io.Reader, category Category) (*Product, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse label HTML: %w", err)
	}

	p := &Product{
		Name:     cleanText(doc.Find("h1").First().Text()),
		Brand:    cleanText(doc.Find(`[itemprop="brand"], .brand`).First().Text()),
		Category: category,
	}
	if p.Brand == "" {
		p.Brand, _ = doc.Find(`meta[property="product:brand"]`).Attr("content")
	}
	if p.Name == "" {
		return nil, fmt.Errorf("label has no product name")
	}

	found := 0
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(cleanText(cells.Eq(0).Text()))
		raw := cleanText(cells.Eq(1).Text())
		if applyLabelRow(p, label, raw) {
			found++
		}
	})
	if found == 0 {
		return nil, fmt.Errorf("label for %q has no nutrition rows", p.Name)
	}

	p.ID = slug(p.Brand + " " + p.Name)
	return p, nil
}

func applyLabelRow(p *Product, label, raw string) bool {
	switch {
	case strings.HasPrefix(label, "serving"):
		p.ServingSize = raw
	case strings.Contains(label, "ratio"):
		if m := ratioPattern.FindStringSubmatch(raw); m != nil {
			p.GlucoseFructoseRatio = m[1] + ":" + m[2]
		}
	case strings.Contains(label, "calories") || label == "energy":
		p.Calories = firstNumber(raw)
	case strings.Contains(label, "carbohydrate"):
		p.CarbsGrams = firstNumber(raw)
	case strings.Contains(label, "sodium"):
		p.SodiumMg = milligrams(raw)
	case strings.Contains(label, "sugar"):
		p.SugarGrams = ptr(firstNumber(raw))
	case strings.Contains(label, "glucose") || strings.Contains(label, "dextrose"):
		p.GlucoseGrams = ptr(firstNumber(raw))
	case strings.Contains(label, "fructose"):
		p.FructoseGrams = ptr(firstNumber(raw))
	case strings.Contains(label, "maltodextrin"):
		p.MaltodextrinGrams = ptr(firstNumber(raw))
	case strings.Contains(label, "caffeine"):
		p.CaffeineMg = milligrams(raw)
	case strings.Contains(label, "protein"):
		p.ProteinGrams = firstNumber(raw)
	case strings.Contains(label, "fat"):
		p.FatGrams = firstNumber(raw)
	case strings.Contains(label, "fiber") || strings.Contains(label, "fibre"):
		p.FiberGrams = firstNumber(raw)
	case strings.Contains(label, "water"):
		p.WaterContentMl = firstNumber(raw)
	default:
		return false
	}
	return true
}

func firstNumber(s string) float64 {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// milligrams accepts "200 mg" and "0.2 g".
func milligrams(s string) float64 {
	v := firstNumber(s)
	lower := strings.ToLower(s)
	if !strings.Contains(lower, "mg") && strings.Contains(lower, "g") {
		return v * 1000
	}
	return v
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func slug(s string) string {
	return strings.Trim(nonSlugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func ptr(v float64) *float64 {
	return &v
}
