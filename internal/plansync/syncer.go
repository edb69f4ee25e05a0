// Package plansync keeps an in-memory timeline and its saved plan in step.
//
// A Syncer hydrates the timeline once, then turns every reported change into
// a debounced save. Saves are skipped for guests and when the serialized
// timeline matches what was last written.
package plansync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fuelplanner/internal/log"
	"fuelplanner/internal/metrics"
	"fuelplanner/internal/plan"
	"fuelplanner/internal/timeline"
)

// DefaultDebounce is the quiet period before a save fires.
const DefaultDebounce = time.Second

const saveTimeout = 30 * time.Second

// Store is the plan storage the syncer reads and writes.
type Store interface {
	Load(ctx context.Context, racePlanID string) (*plan.Plan, error)
	GetOrCreate(ctx context.Context, racePlanID, userID string) (int64, error)
	ReplaceItems(ctx context.Context, planID int64, items []plan.Item) error
	ReplaceWater(ctx context.Context, planID int64, water []plan.Water) error
}

// Config identifies the plan being synced. An empty UserID is a guest.
type Config struct {
	RacePlanID string
	UserID     string
	Debounce   time.Duration
}

// Syncer owns the dirty flag, the debounce timer and the last saved hash.
// snapshot must be safe to call from the timer goroutine.
type Syncer struct {
	store    Store
	cfg      Config
	snapshot func() timeline.Snapshot
	logger   zerolog.Logger

	mu       sync.Mutex
	loaded   bool
	dirty    bool
	stopped  bool
	timer    *time.Timer
	planID   int64
	lastHash string

	// saveMu serializes writes; never held while waiting on mu.
	saveMu sync.Mutex
}

// New creates a Syncer. Change detection stays off until Hydrate returns.
func New(store Store, cfg Config, snapshot func() timeline.Snapshot) *Syncer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Syncer{
		store:    store,
		cfg:      cfg,
		snapshot: snapshot,
		logger:   log.WithPlan(cfg.RacePlanID).With().Str("component", "plansync").Logger(),
	}
}

// Guest reports whether saves are skipped for this session.
func (s *Syncer) Guest() bool { return s.cfg.UserID == "" }

// PlanID is the stored plan id, 0 until the plan is loaded or first saved.
func (s *Syncer) PlanID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planID
}

// Loaded reports whether hydration finished and change detection is armed.
func (s *Syncer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Dirty reports an unsaved change.
func (s *Syncer) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Hydrate loads the saved plan and hands it to replay, then records the
// baseline hash and arms change detection. Guests and load failures start
// from the empty timeline; a failed load leaves the plan unsaved so the
// next save creates it.
func (s *Syncer) Hydrate(ctx context.Context, replay func(*plan.Plan)) {
	var planID int64
	switch {
	case s.Guest():
		metrics.HydrationsTotal.WithLabelValues(metrics.ResultSkippedGuest).Inc()
	default:
		p, err := s.store.Load(ctx, s.cfg.RacePlanID)
		switch {
		case err != nil:
			metrics.HydrationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
			s.logger.Warn().Err(err).Msg("hydration failed, starting from an empty plan")
		case p == nil:
			metrics.HydrationsTotal.WithLabelValues(metrics.ResultEmpty).Inc()
		default:
			replay(p)
			planID = p.ID
			metrics.HydrationsTotal.WithLabelValues(metrics.ResultLoaded).Inc()
			s.logger.Debug().Int("items", len(p.Items)).Int("water", len(p.Water)).Msg("plan hydrated")
		}
	}

	baseline, err := Hash(s.snapshot())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash hydrated plan")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.planID = planID
	s.lastHash = baseline
	s.loaded = true
}

// MarkDirty records a change and restarts the debounce timer. Changes
// before hydration completes are ignored.
func (s *Syncer) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || s.stopped {
		return
	}
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, s.fire)
}

func (s *Syncer) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	// Failures are logged inside save; the next edit retries.
	_, _ = s.save(ctx)
}

// Flush cancels the pending timer and saves now if there is a change.
func (s *Syncer) Flush(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.save(ctx)
}

// Stop cancels a pending save and disarms change detection. A save already
// running is not awaited.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.dirty = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// save writes the current snapshot and returns one of the metrics results.
func (s *Syncer) save(ctx context.Context) (string, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty || !s.loaded {
		s.mu.Unlock()
		return metrics.ResultUnchanged, nil
	}
	s.dirty = false
	last := s.lastHash
	s.mu.Unlock()

	if s.Guest() {
		metrics.SavesTotal.WithLabelValues(metrics.ResultSkippedGuest).Inc()
		s.logger.Debug().Msg("guest session, save skipped")
		return metrics.ResultSkippedGuest, nil
	}

	snap := s.snapshot()
	hash, err := Hash(snap)
	if err != nil {
		metrics.SavesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		s.logger.Error().Err(err).Msg("failed to hash plan")
		return metrics.ResultFailed, err
	}
	if hash == last {
		metrics.SavesTotal.WithLabelValues(metrics.ResultUnchanged).Inc()
		return metrics.ResultUnchanged, nil
	}

	timer := metrics.NewTimer()
	planID, err := s.write(ctx, snap)
	timer.ObserveDuration(metrics.SaveDuration)
	if err != nil {
		metrics.SavesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		s.logger.Warn().Err(err).Msg("plan save failed, keeping local state")
		return metrics.ResultFailed, err
	}

	s.mu.Lock()
	s.planID = planID
	s.lastHash = hash
	s.mu.Unlock()

	metrics.SavesTotal.WithLabelValues(metrics.ResultSaved).Inc()
	s.logger.Debug().Int64("plan_id", planID).Int("items", len(snap.Items)).Dur("took", timer.Duration()).Msg("plan saved")
	return metrics.ResultSaved, nil
}

func (s *Syncer) write(ctx context.Context, snap timeline.Snapshot) (int64, error) {
	planID, err := s.store.GetOrCreate(ctx, s.cfg.RacePlanID, s.cfg.UserID)
	if err != nil {
		return 0, err
	}
	items, water := ToRows(snap)
	if err := s.store.ReplaceItems(ctx, planID, items); err != nil {
		return 0, err
	}
	if err := s.store.ReplaceWater(ctx, planID, water); err != nil {
		return 0, err
	}
	return planID, nil
}

// Hash is the sha256 of the snapshot's JSON encoding.
func Hash(snap timeline.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
