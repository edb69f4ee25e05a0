package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fuelplanner/internal/catalog"
	"fuelplanner/internal/favorites"
	"fuelplanner/internal/log"
	"fuelplanner/internal/metrics"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/plan"
	"fuelplanner/internal/plansync"
	"fuelplanner/internal/timeline"
	"fuelplanner/internal/validate"
)

// Catalog is the read-only product source a session browses.
type Catalog interface {
	catalog.Lookup
	Products() []catalog.Product
}

// Params describe the plan being edited. An empty UserID is a guest session.
type Params struct {
	RacePlanID     string
	UserID         string
	Race           nutrition.RaceContext
	Athlete        nutrition.AthleteContext
	Weather        nutrition.WeatherContext
	EnforceCeiling bool
}

// Deps are the collaborators a session reads from and writes to.
// Favorites may be nil.
type Deps struct {
	Catalog   Catalog
	Plans     plansync.Store
	Favorites favorites.Store
	Debounce  time.Duration
}

// Session is one plan-editing session. Derived state (targets, validation)
// is recomputed synchronously after every mutation, so reads never observe
// it stale. Methods are safe for concurrent use; the debounced save runs on
// its own goroutine.
type Session struct {
	params  Params
	catalog Catalog
	favs    favorites.Store
	syncer  *plansync.Syncer
	logger  zerolog.Logger

	hourly nutrition.HourlyTargets
	total  nutrition.TotalTargets

	mu            sync.Mutex
	timeline      *timeline.Timeline
	report        validate.Report
	reportVersion uint64
	selected      int
	filters       catalog.Filters
	favorites     map[string]bool
	closed        bool
	// final is what a save still in flight after Close writes.
	final timeline.Snapshot
}

// New builds a session with an empty timeline. Call Init to hydrate it.
func New(p Params, d Deps) *Session {
	hourly := nutrition.ComputeHourlyTargets(p.Race, p.Athlete, p.Weather)
	s := &Session{
		params:    p,
		catalog:   d.Catalog,
		favs:      d.Favorites,
		logger:    log.WithPlan(p.RacePlanID).With().Str("component", "session").Logger(),
		hourly:    hourly,
		total:     nutrition.ComputeTotalTargets(hourly, p.Race.DurationHours()),
		timeline:  timeline.New(p.Race, d.Catalog),
		selected:  -1,
		favorites: map[string]bool{},
	}
	s.syncer = plansync.New(d.Plans, plansync.Config{
		RacePlanID: p.RacePlanID,
		UserID:     p.UserID,
		Debounce:   d.Debounce,
	}, s.snapshot)
	s.revalidate()
	return s
}

// Init loads favorites and hydrates the timeline from the saved plan.
// Neither failure is fatal; the session starts empty instead.
func (s *Session) Init(ctx context.Context) {
	if s.favs != nil && s.params.UserID != "" {
		ids, err := s.favs.Get(s.params.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to load favorites")
		}
		s.mu.Lock()
		for _, id := range ids {
			s.favorites[id] = true
		}
		s.mu.Unlock()
	}

	s.syncer.Hydrate(ctx, func(p *plan.Plan) {
		s.mu.Lock()
		defer s.mu.Unlock()
		plansync.Replay(s.timeline, p)
		s.revalidate()
	})
}

// Guest reports a session without a user; it is never saved.
func (s *Session) Guest() bool { return s.params.UserID == "" }

func (s *Session) RacePlanID() string { return s.params.RacePlanID }

// Dispatch applies an intent and reports whether it changed anything.
// Timeline changes schedule a debounced save.
func (s *Session) Dispatch(in Intent) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	applied, mutated := s.apply(in)
	if mutated {
		s.revalidate()
	}
	s.mu.Unlock()

	metrics.IntentsTotal.WithLabelValues(in.Name()).Inc()
	if mutated {
		s.syncer.MarkDirty()
	}
	return applied
}

func (s *Session) apply(in Intent) (applied, mutated bool) {
	tl := s.timeline
	switch in := in.(type) {
	case AddProduct:
		p, ok := s.catalog.Product(in.ProductID)
		if !ok {
			s.logger.Debug().Str("product_id", in.ProductID).Msg("unknown product dropped")
			return false, false
		}
		applied = tl.AddProduct(in.HourIndex, p, in.Source)
	case RemoveProduct:
		applied = tl.RemoveProduct(in.HourIndex, in.EntryIndex)
	case UpdateQuantity:
		applied = tl.UpdateQuantity(in.HourIndex, in.EntryIndex, in.Quantity)
	case UpdateFluid:
		applied = tl.UpdateFluid(in.HourIndex, in.EntryIndex, in.Ml)
	case SetWater:
		applied = tl.SetWater(in.HourIndex, in.Ml)
	case SetWaterSource:
		applied = tl.SetWaterSource(in.HourIndex, in.Source)
	case ClearPlan:
		tl.Reset()
		applied = true
	case SelectHour:
		if in.HourIndex < 0 || in.HourIndex >= tl.Len() || in.HourIndex == s.selected {
			s.selected = -1
		} else {
			s.selected = in.HourIndex
		}
		return true, false
	default:
		return false, false
	}
	return applied, applied
}

// revalidate refreshes the report for the current timeline version.
// Callers hold mu.
func (s *Session) revalidate() {
	v := s.timeline.Version()
	if s.reportVersion == v {
		return
	}
	s.report = validate.Evaluate(s.timeline.Hours(), s.catalog, s.hourly, validate.Conditions{
		TemperatureF:   s.params.Weather.TemperatureF,
		WeightKg:       s.params.Athlete.WeightKg,
		EnforceCeiling: s.params.EnforceCeiling,
	})
	s.reportVersion = v
}

func (s *Session) snapshot() timeline.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.final
	}
	return s.timeline.Snapshot()
}

// SetFilters merges a partial filter update.
func (s *Session) SetFilters(patch catalog.FilterPatch) catalog.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = s.filters.Apply(patch)
	return s.filters
}

// ToggleFavorite flips a product in the favorites set and returns the new
// state. Authenticated users' favorites are persisted; failures are logged.
func (s *Session) ToggleFavorite(productID string) bool {
	s.mu.Lock()
	on := !s.favorites[productID]
	if on {
		s.favorites[productID] = true
	} else {
		delete(s.favorites, productID)
	}
	ids := s.favoriteIDs()
	s.mu.Unlock()

	if s.favs != nil && s.params.UserID != "" {
		if err := s.favs.Set(s.params.UserID, ids); err != nil {
			s.logger.Warn().Err(err).Msg("failed to save favorites")
		}
	}
	return on
}

func (s *Session) favoriteIDs() []string {
	ids := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Flush saves any pending change now.
func (s *Session) Flush(ctx context.Context) error {
	_, err := s.syncer.Flush(ctx)
	return err
}

// Close cancels a pending save and resets session state. A save already
// running is left to finish.
func (s *Session) Close() {
	s.syncer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.final = s.timeline.Snapshot()
	s.timeline.Reset()
	s.selected = -1
	s.filters = catalog.Filters{}
	s.favorites = map[string]bool{}
	s.revalidate()
}
