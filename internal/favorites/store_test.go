package favorites

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favs", "favorites.db")
	store, err := NewBoltStore(path)
	require.NoError(t, err)

	t.Run("GetUnknownUser", func(t *testing.T) {
		ids, err := store.Get("nobody")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("SetNormalizes", func(t *testing.T) {
		require.NoError(t, store.Set("u1", []string{"maurten-gel-100", "", "gu-roctane", "maurten-gel-100"}))

		ids, err := store.Get("u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"gu-roctane", "maurten-gel-100"}, ids)
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		require.NoError(t, store.Set("u2", []string{"skratch-mix"}))

		ids, err := store.Get("u1")
		require.NoError(t, err)
		assert.NotContains(t, ids, "skratch-mix")
	})

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		require.NoError(t, store.Close())

		reopened, err := NewBoltStore(path)
		require.NoError(t, err)
		defer reopened.Close()

		ids, err := reopened.Get("u2")
		require.NoError(t, err)
		assert.Equal(t, []string{"skratch-mix"}, ids)
	})
}
