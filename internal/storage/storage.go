package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fuelplanner/internal/timeline"
)

// Export is the document handed to the sticker generator.
type Export struct {
	RacePlanID string                `json:"racePlanId"`
	CreatedAt  time.Time             `json:"createdAt"`
	Hours      []timeline.HourExport `json:"hours"`
}

// ExportStore provides file-based storage for plan exports. Only the latest
// version of each plan is kept.
type ExportStore struct {
	basePath string
}

// NewExportStore creates a new ExportStore and ensures the base directory exists.
func NewExportStore(basePath string) (*ExportStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", basePath, err)
	}
	return &ExportStore{basePath: basePath}, nil
}

// sanitizeTimestamp makes the timestamp safe for filenames.
func sanitizeTimestamp(ts string) string {
	return strings.ReplaceAll(ts, ":", "-")
}

func (s *ExportStore) versionedPath(racePlanID string, createdAt time.Time) string {
	filename := fmt.Sprintf("%s_%s.json", racePlanID, sanitizeTimestamp(createdAt.UTC().Format("20060102T150405.000000000Z")))
	return filepath.Join(s.basePath, filename)
}

// Save writes a new version of the export, replacing older ones, and
// returns the file path.
func (s *ExportStore) Save(racePlanID string, hours []timeline.HourExport) (string, error) {
	if err := s.RemoveStaleVersions(racePlanID); err != nil {
		return "", err
	}

	exp := Export{RacePlanID: racePlanID, CreatedAt: time.Now().UTC(), Hours: hours}
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}

	path := s.versionedPath(racePlanID, exp.CreatedAt)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Latest reads the newest export for a plan, or nil when none exists.
func (s *ExportStore) Latest(racePlanID string) (*Export, error) {
	matches, err := s.versions(racePlanID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	data, err := os.ReadFile(matches[len(matches)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal export: %w", err)
	}
	return &exp, nil
}

// RemoveStaleVersions removes every export file of racePlanID.
func (s *ExportStore) RemoveStaleVersions(racePlanID string) error {
	matches, err := s.versions(racePlanID)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}

func (s *ExportStore) versions(racePlanID string) ([]string, error) {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%s_*.json", racePlanID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob export files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
