package catalog

import "fuelplanner/internal/nutrition"

// Category groups products the way athletes browse them.
type Category string

const (
	CategoryGel         Category = "gel"
	CategoryChew        Category = "chew"
	CategoryBar         Category = "bar"
	CategoryDrinkMix    Category = "drink_mix"
	CategoryRealFood    Category = "real_food"
	CategoryElectrolyte Category = "electrolyte"
	CategoryOther       Category = "other"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryGel, CategoryChew, CategoryBar, CategoryDrinkMix, CategoryRealFood, CategoryElectrolyte, CategoryOther:
		return true
	}
	return false
}

// Product is one catalog entry, values per serving.
type Product struct {
	ID                   string   `json:"id" yaml:"id"`
	Brand                string   `json:"brand" yaml:"brand"`
	Name                 string   `json:"name" yaml:"name"`
	Category             Category `json:"category" yaml:"category"`
	ServingSize          string   `json:"serving_size" yaml:"serving_size"`
	Calories             float64  `json:"calories" yaml:"calories"`
	CarbsGrams           float64  `json:"carbs_grams" yaml:"carbs_grams"`
	SodiumMg             float64  `json:"sodium_mg" yaml:"sodium_mg"`
	SugarGrams           *float64 `json:"sugar_grams,omitempty" yaml:"sugar_grams,omitempty"`
	GlucoseGrams         *float64 `json:"glucose_grams,omitempty" yaml:"glucose_grams,omitempty"`
	FructoseGrams        *float64 `json:"fructose_grams,omitempty" yaml:"fructose_grams,omitempty"`
	MaltodextrinGrams    *float64 `json:"maltodextrin_grams,omitempty" yaml:"maltodextrin_grams,omitempty"`
	GlucoseFructoseRatio string   `json:"glucose_fructose_ratio,omitempty" yaml:"glucose_fructose_ratio,omitempty"`
	CaffeineMg           float64  `json:"caffeine_mg" yaml:"caffeine_mg"`
	ProteinGrams         float64  `json:"protein_grams" yaml:"protein_grams"`
	FatGrams             float64  `json:"fat_grams" yaml:"fat_grams"`
	FiberGrams           float64  `json:"fiber_grams" yaml:"fiber_grams"`
	WaterContentMl       float64  `json:"water_content_ml" yaml:"water_content_ml"`
	Verified             bool     `json:"verified" yaml:"verified"`
}

// Pathway classifies the product's carbohydrate by sugar transport pathway.
func (p Product) Pathway() nutrition.Pathway {
	return nutrition.ClassifyPathway(nutrition.SugarProfile{
		CarbsGrams:           p.CarbsGrams,
		GlucoseGrams:         p.GlucoseGrams,
		FructoseGrams:        p.FructoseGrams,
		MaltodextrinGrams:    p.MaltodextrinGrams,
		GlucoseFructoseRatio: p.GlucoseFructoseRatio,
	})
}

// Lookup resolves product references held by a timeline.
type Lookup interface {
	Product(id string) (Product, bool)
}

// Index is an in-memory Lookup keyed by product id.
type Index map[string]Product

func NewIndex(products []Product) Index {
	idx := make(Index, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

func (idx Index) Product(id string) (Product, bool) {
	p, ok := idx[id]
	return p, ok
}
