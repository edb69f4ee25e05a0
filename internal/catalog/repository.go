package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

const productColumns = `id, brand, name, category, serving_size, calories, carbs_g, sodium_mg,
	sugar_g, glucose_g, fructose_g, maltodextrin_g, glucose_fructose_ratio,
	caffeine_mg, protein_g, fat_g, fiber_g, water_content_ml, is_verified`

// Repository is the read side of the product catalog.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// ListActive returns active products ordered by brand then name.
func (r *Repository) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+`
FROM products
WHERE is_active = 1
ORDER BY brand COLLATE NOCASE, name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Get retrieves a product by its ID, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &p, nil
}

// Import loads seed products, replacing rows with the same id.
func (r *Repository) Import(ctx context.Context, products []Product) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO products(`+productColumns+`, is_active, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  brand=excluded.brand,
  name=excluded.name,
  category=excluded.category,
  serving_size=excluded.serving_size,
  calories=excluded.calories,
  carbs_g=excluded.carbs_g,
  sodium_mg=excluded.sodium_mg,
  sugar_g=excluded.sugar_g,
  glucose_g=excluded.glucose_g,
  fructose_g=excluded.fructose_g,
  maltodextrin_g=excluded.maltodextrin_g,
  glucose_fructose_ratio=excluded.glucose_fructose_ratio,
  caffeine_mg=excluded.caffeine_mg,
  protein_g=excluded.protein_g,
  fat_g=excluded.fat_g,
  fiber_g=excluded.fiber_g,
  water_content_ml=excluded.water_content_ml,
  is_verified=excluded.is_verified,
  is_active=1,
  updated_at=CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare product import: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Brand, p.Name, string(p.Category), p.ServingSize, p.Calories, p.CarbsGrams, p.SodiumMg,
			nullFloat(p.SugarGrams), nullFloat(p.GlucoseGrams), nullFloat(p.FructoseGrams), nullFloat(p.MaltodextrinGrams),
			p.GlucoseFructoseRatio, p.CaffeineMg, p.ProteinGrams, p.FatGrams, p.FiberGrams, p.WaterContentMl, p.Verified,
		); err != nil {
			return 0, fmt.Errorf("failed to import product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(products), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (Product, error) {
	var (
		p                                 Product
		category                          string
		sugar, glucose, fructose, maltose sql.NullFloat64
	)
	err := s.Scan(&p.ID, &p.Brand, &p.Name, &category, &p.ServingSize, &p.Calories, &p.CarbsGrams, &p.SodiumMg,
		&sugar, &glucose, &fructose, &maltose, &p.GlucoseFructoseRatio,
		&p.CaffeineMg, &p.ProteinGrams, &p.FatGrams, &p.FiberGrams, &p.WaterContentMl, &p.Verified)
	if err != nil {
		return Product{}, err
	}
	p.Category = Category(category)
	p.SugarGrams = floatPtr(sugar)
	p.GlucoseGrams = floatPtr(glucose)
	p.FructoseGrams = floatPtr(fructose)
	p.MaltodextrinGrams = floatPtr(maltose)
	return p, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
