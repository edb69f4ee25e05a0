package plan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelplanner/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestLoadMissingPlan(t *testing.T) {
	repo := newTestRepository(t)
	p, err := repo.Load(context.Background(), "race-404")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetOrCreateIsStable(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id1, err := repo.GetOrCreate(ctx, "race-1", "alice")
	require.NoError(t, err)
	id2, err := repo.GetOrCreate(ctx, "race-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	other, err := repo.GetOrCreate(ctx, "race-2", "alice")
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)

	p, err := repo.Load(ctx, "race-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.UserID)
	assert.Empty(t, p.Items)
	assert.Empty(t, p.Water)
}

func TestReplaceRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.GetOrCreate(ctx, "race-1", "alice")
	require.NoError(t, err)

	fluid := 750.0
	require.NoError(t, repo.ReplaceItems(ctx, id, []Item{
		{HourNumber: 2, ProductID: "skratch-mix", Quantity: 1, FluidMl: &fluid, Source: "drop_bag", SortOrder: 1},
		{HourNumber: 2, ProductID: "maurten-gel-100", Quantity: 3, Source: "personal", SortOrder: 0},
		{HourNumber: 1, ProductID: "maurten-gel-100", Quantity: 1, Source: "personal", SortOrder: 0},
	}))
	require.NoError(t, repo.ReplaceWater(ctx, id, []Water{{HourNumber: 1, WaterMl: 500, Source: "aid_station"}}))

	p, err := repo.Load(ctx, "race-1")
	require.NoError(t, err)
	require.Len(t, p.Items, 3)
	assert.Equal(t, 1, p.Items[0].HourNumber)
	assert.Equal(t, 3, p.Items[1].Quantity)
	require.NotNil(t, p.Items[2].FluidMl)
	assert.Equal(t, 750.0, *p.Items[2].FluidMl)
	assert.Nil(t, p.Items[1].FluidMl)
	assert.Equal(t, []Water{{HourNumber: 1, WaterMl: 500, Source: "aid_station"}}, p.Water)

	// A second replace wipes the first.
	require.NoError(t, repo.ReplaceItems(ctx, id, []Item{{HourNumber: 3, ProductID: "gu", Quantity: 2, Source: "personal"}}))
	require.NoError(t, repo.ReplaceWater(ctx, id, nil))

	p, err = repo.Load(ctx, "race-1")
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "gu", p.Items[0].ProductID)
	assert.Empty(t, p.Water)
}

func TestReplaceRollsBackOnInvalidRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.GetOrCreate(ctx, "race-1", "alice")
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceItems(ctx, id, []Item{{HourNumber: 1, ProductID: "gel", Quantity: 1, Source: "personal"}}))

	err = repo.ReplaceItems(ctx, id, []Item{{HourNumber: 1, ProductID: "gel", Quantity: 0, Source: "personal"}})
	require.Error(t, err)

	p, err := repo.Load(ctx, "race-1")
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 1, p.Items[0].Quantity)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.GetOrCreate(ctx, "race-1", "alice")
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceItems(ctx, id, []Item{{HourNumber: 1, ProductID: "gel", Quantity: 1, Source: "personal"}}))

	require.NoError(t, repo.Delete(ctx, "race-1"))
	p, err := repo.Load(ctx, "race-1")
	require.NoError(t, err)
	assert.Nil(t, p)
}
