package favorites

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	bolt "go.etcd.io/bbolt"
)

var bucketFavorites = []byte("favorites")

// Store persists favorite product ids per user.
type Store interface {
	Get(userID string) ([]string, error)
	Set(userID string, productIDs []string) error
}

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the favorites database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create favorites directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketFavorites); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketFavorites, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns the user's favorites, empty when none were saved.
func (s *BoltStore) Get(userID string) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketFavorites).Get([]byte(userID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites for %s: %w", userID, err)
	}
	return ids, nil
}

// Set replaces the user's favorites. Ids are stored sorted and deduplicated.
func (s *BoltStore) Set(userID string, productIDs []string) error {
	data, err := json.Marshal(normalize(productIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketFavorites).Put([]byte(userID), data); err != nil {
			return fmt.Errorf("failed to set favorites for %s: %w", userID, err)
		}
		return nil
	})
}

func normalize(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
