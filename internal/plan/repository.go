package plan

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Plan is a saved fuel plan with its item and water rows.
type Plan struct {
	ID         int64
	RacePlanID string
	UserID     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Items      []Item
	Water      []Water
}

// Item is one product row of a saved plan.
type Item struct {
	HourNumber int
	ProductID  string
	Quantity   int
	FluidMl    *float64
	Source     string
	SortOrder  int
}

// Water is the loose water row of one hour.
type Water struct {
	HourNumber int
	WaterMl    float64
	Source     string
}

// Repository is the durable store for fuel plans.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new plan Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Load returns the plan saved for racePlanID with its rows, or nil when none exists.
func (r *Repository) Load(ctx context.Context, racePlanID string) (*Plan, error) {
	p := &Plan{RacePlanID: racePlanID}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM fuel_plans WHERE race_plan_id = ?`, racePlanID,
	).Scan(&p.ID, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load plan %s: %w", racePlanID, err)
	}

	if p.Items, err = r.listItems(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Water, err = r.listWater(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) listItems(ctx context.Context, planID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT hour_number, product_id, quantity, fluid_ml, source, sort_order
FROM fuel_plan_items
WHERE plan_id = ?
ORDER BY hour_number, sort_order, id`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		var fluid sql.NullFloat64
		if err := rows.Scan(&it.HourNumber, &it.ProductID, &it.Quantity, &fluid, &it.Source, &it.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan plan item: %w", err)
		}
		if fluid.Valid {
			v := fluid.Float64
			it.FluidMl = &v
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan items: %w", err)
	}
	return items, nil
}

func (r *Repository) listWater(ctx context.Context, planID int64) ([]Water, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT hour_number, water_ml, source
FROM fuel_plan_water
WHERE plan_id = ?
ORDER BY hour_number`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan water: %w", err)
	}
	defer rows.Close()

	water := make([]Water, 0)
	for rows.Next() {
		var w Water
		if err := rows.Scan(&w.HourNumber, &w.WaterMl, &w.Source); err != nil {
			return nil, fmt.Errorf("failed to scan plan water: %w", err)
		}
		water = append(water, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan water: %w", err)
	}
	return water, nil
}

// GetOrCreate returns the id of the plan for racePlanID, creating it for
// userID when missing. An existing plan keeps its owner.
func (r *Repository) GetOrCreate(ctx context.Context, racePlanID, userID string) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx, `INSERT INTO fuel_plans (race_plan_id, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(race_plan_id) DO UPDATE SET updated_at = excluded.updated_at
RETURNING id`, racePlanID, userID, now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get or create plan %s: %w", racePlanID, err)
	}
	return id, nil
}

// ReplaceItems deletes every item row of the plan and inserts items.
func (r *Repository) ReplaceItems(ctx context.Context, planID int64, items []Item) error {
	return r.replace(ctx, "fuel_plan_items", planID, `INSERT INTO fuel_plan_items
(plan_id, hour_number, product_id, quantity, fluid_ml, source, sort_order)
VALUES (?, ?, ?, ?, ?, ?, ?)`, len(items), func(stmt *sql.Stmt, i int) error {
		it := items[i]
		var fluid sql.NullFloat64
		if it.FluidMl != nil {
			fluid = sql.NullFloat64{Float64: *it.FluidMl, Valid: true}
		}
		_, err := stmt.ExecContext(ctx, planID, it.HourNumber, it.ProductID, it.Quantity, fluid, it.Source, it.SortOrder)
		return err
	})
}

// ReplaceWater deletes every water row of the plan and inserts water.
func (r *Repository) ReplaceWater(ctx context.Context, planID int64, water []Water) error {
	return r.replace(ctx, "fuel_plan_water", planID, `INSERT INTO fuel_plan_water
(plan_id, hour_number, water_ml, source)
VALUES (?, ?, ?, ?)`, len(water), func(stmt *sql.Stmt, i int) error {
		w := water[i]
		_, err := stmt.ExecContext(ctx, planID, w.HourNumber, w.WaterMl, w.Source)
		return err
	})
}

func (r *Repository) replace(ctx context.Context, table string, planID int64, insert string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

// Delete removes a saved plan and, by cascade, its rows.
func (r *Repository) Delete(ctx context.Context, racePlanID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fuel_plans WHERE race_plan_id = ?`, racePlanID); err != nil {
		return fmt.Errorf("failed to delete plan %s: %w", racePlanID, err)
	}
	return nil
}
