package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Products []Product `yaml:"products"`
}

// LoadSeed reads a YAML product list and validates every entry.
func LoadSeed(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML.
func ParseSeed(data []byte) ([]Product, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}

	seen := make(map[string]bool, len(f.Products))
	for i, p := range f.Products {
		if err := validateSeedProduct(p); err != nil {
			return nil, fmt.Errorf("product %d: %w", i+1, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("product %d: duplicate id %q", i+1, p.ID)
		}
		seen[p.ID] = true
	}
	return f.Products, nil
}

// MarshalSeed renders products in seed format.
func MarshalSeed(products []Product) ([]byte, error) {
	data, err := yaml.Marshal(seedFile{Products: products})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog seed: %w", err)
	}
	return data, nil
}

func validateSeedProduct(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Brand) == "" || strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%s: brand and name are required", p.ID)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%s: unknown category %q", p.ID, p.Category)
	}
	for name, v := range map[string]float64{
		"calories":         p.Calories,
		"carbs_grams":      p.CarbsGrams,
		"sodium_mg":        p.SodiumMg,
		"caffeine_mg":      p.CaffeineMg,
		"water_content_ml": p.WaterContentMl,
	} {
		if v < 0 {
			return fmt.Errorf("%s: %s must be >= 0", p.ID, name)
		}
	}
	return nil
}
