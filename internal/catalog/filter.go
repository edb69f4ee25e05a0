package catalog

import "strings"

// Filters is the catalog-browsing state of a planning session.
type Filters struct {
	Category      Category `json:"category,omitempty"`
	Search        string   `json:"search,omitempty"`
	CaffeineOnly  bool     `json:"caffeine_only"`
	CaffeineFree  bool     `json:"caffeine_free"`
	FavoritesOnly bool     `json:"favorites_only"`
}

// FilterPatch is a partial update; nil fields are left unchanged.
type FilterPatch struct {
	Category      *Category
	Search        *string
	CaffeineOnly  *bool
	CaffeineFree  *bool
	FavoritesOnly *bool
}

// Apply merges the patch. Turning on one caffeine filter turns off the other.
func (f Filters) Apply(p FilterPatch) Filters {
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Search != nil {
		f.Search = *p.Search
	}
	if p.FavoritesOnly != nil {
		f.FavoritesOnly = *p.FavoritesOnly
	}
	if p.CaffeineOnly != nil {
		f.CaffeineOnly = *p.CaffeineOnly
		if f.CaffeineOnly {
			f.CaffeineFree = false
		}
	}
	if p.CaffeineFree != nil {
		f.CaffeineFree = *p.CaffeineFree
		if f.CaffeineFree {
			f.CaffeineOnly = false
		}
	}
	return f
}

// Filter returns the products matching f, preserving input order.
func Filter(products []Product, f Filters, favorites map[string]bool) []Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.CaffeineOnly && p.CaffeineMg <= 0 {
			continue
		}
		if f.CaffeineFree && p.CaffeineMg > 0 {
			continue
		}
		if f.FavoritesOnly && !favorites[p.ID] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}
