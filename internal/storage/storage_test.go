package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelplanner/internal/timeline"
)

func TestExportStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewExportStore(filepath.Join(dir, "exports"))
	require.NoError(t, err)

	hours := []timeline.HourExport{{
		HourNumber: 1,
		StartTime:  "06:00",
		EndTime:    "07:00",
		Elapsed:    "0:00-1:00",
		Products:   []timeline.ProductExport{{Name: "Gel 100", Brand: "Maurten", Quantity: 2, Carbs: 50}},
		WaterMl:    300,
	}}

	t.Run("LatestMissing", func(t *testing.T) {
		exp, err := store.Latest("race-1")
		require.NoError(t, err)
		assert.Nil(t, exp)
	})

	t.Run("Save", func(t *testing.T) {
		path, err := store.Save("race-1", hours)
		require.NoError(t, err)
		assert.FileExists(t, path)
		assert.NotContains(t, filepath.Base(path), ":")
	})

	t.Run("SaveReplacesOlderVersions", func(t *testing.T) {
		hours[0].WaterMl = 450
		_, err := store.Save("race-1", hours)
		require.NoError(t, err)

		matches, err := filepath.Glob(filepath.Join(dir, "exports", "race-1_*.json"))
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("Latest", func(t *testing.T) {
		exp, err := store.Latest("race-1")
		require.NoError(t, err)
		require.NotNil(t, exp)
		assert.Equal(t, "race-1", exp.RacePlanID)
		require.Len(t, exp.Hours, 1)
		assert.Equal(t, 450.0, exp.Hours[0].WaterMl)
		assert.Equal(t, "Maurten", exp.Hours[0].Products[0].Brand)
	})

	t.Run("OtherPlansUntouched", func(t *testing.T) {
		_, err := store.Save("race-2", hours)
		require.NoError(t, err)
		require.NoError(t, store.RemoveStaleVersions("race-2"))

		entries, err := os.ReadDir(filepath.Join(dir, "exports"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
