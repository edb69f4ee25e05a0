package app

import (
	"context"
	"fmt"
	"io"

	"fuelplanner/internal/catalog"
)

// ImportSeed loads a YAML seed file into the product catalog.
func (a *App) ImportSeed(ctx context.Context, path string) (int, error) {
	products, err := catalog.LoadSeed(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load seed %s: %w", path, err)
	}

	n, err := a.products.Import(ctx, products)
	if err != nil {
		return 0, err
	}
	a.log.Info().Int("products", n).Str("path", path).Msg("catalog seed imported")
	return n, nil
}

// ImportLabel parses a product page's nutrition label and adds it to the
// catalog. The imported product is returned.
func (a *App) ImportLabel(ctx context.Context, r io.Reader, category catalog.Category) (*catalog.Product, error) {
	p, err := catalog.ParseLabel(r, category)
	if err != nil {
		return nil, err
	}
	if _, err := a.products.Import(ctx, []catalog.Product{*p}); err != nil {
		return nil, err
	}
	a.log.Info().Str("product_id", p.ID).Msg("label imported")
	return p, nil
}
