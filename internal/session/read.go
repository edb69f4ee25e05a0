package session

import (
	"fuelplanner/internal/catalog"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/timeline"
	"fuelplanner/internal/totals"
	"fuelplanner/internal/validate"
)

func (s *Session) Params() Params { return s.params }

func (s *Session) HourlyTargets() nutrition.HourlyTargets { return s.hourly }

func (s *Session) TotalTargets() nutrition.TotalTargets { return s.total }

// Hours returns a copy of the timeline.
func (s *Session) Hours() []timeline.Hour {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Hours()
}

// Report is the validation of the current timeline.
func (s *Session) Report() validate.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revalidate()
	return s.report
}

func (s *Session) Warnings() []string {
	return s.Report().Warnings
}

func (s *Session) Recommendations() []string {
	return s.Report().Recommendations
}

func (s *Session) RunningTotals() totals.RunningTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totals.Compute(s.timeline.Hours(), s.total)
}

// Export renders the per-hour sticker shape.
func (s *Session) Export() []timeline.HourExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Export()
}

// Snapshot is the persisted form of the current timeline.
func (s *Session) Snapshot() timeline.Snapshot {
	return s.snapshot()
}

// SelectedHour returns the selected hour index, if any.
func (s *Session) SelectedHour() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected >= 0
}

func (s *Session) Filters() catalog.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Favorites returns favorite product ids in sorted order.
func (s *Session) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favoriteIDs()
}

// FilteredProducts applies the current filters to the catalog.
func (s *Session) FilteredProducts() []catalog.Product {
	s.mu.Lock()
	filters := s.filters
	favs := make(map[string]bool, len(s.favorites))
	for id := range s.favorites {
		favs[id] = true
	}
	s.mu.Unlock()
	return catalog.Filter(s.catalog.Products(), filters, favs)
}

// Lookup resolves products referenced by the timeline.
func (s *Session) Lookup() catalog.Lookup { return s.catalog }
