package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"fuelplanner/internal/auth"
	"fuelplanner/internal/catalog"
	"fuelplanner/internal/coach"
	"fuelplanner/internal/config"
	"fuelplanner/internal/database"
	"fuelplanner/internal/favorites"
	"fuelplanner/internal/llm"
	"fuelplanner/internal/log"
	"fuelplanner/internal/metrics"
	"fuelplanner/internal/packing"
	"fuelplanner/internal/plan"
	"fuelplanner/internal/session"
	"fuelplanner/internal/storage"
)

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	db           *database.DB
	products     *catalog.Repository
	plans        *plan.Repository
	favorites    *favorites.BoltStore
	exports      *storage.ExportStore
	metricsStore *metrics.Store
	verifier     *auth.Verifier

	// coachMu guards the lazily built generator and briefer.
	coachMu sync.Mutex
	textGen llm.TextGenerator
	briefer *coach.Briefer
}

// Option customizes New.
type Option func(*App)

// WithTextGenerator replaces the configured LLM provider.
func WithTextGenerator(gen llm.TextGenerator) Option {
	return func(a *App) { a.textGen = gen }
}

// New opens every store named in cfg. The LLM client is created lazily on the
// first briefing unless one is supplied with WithTextGenerator.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	favs, err := favorites.NewBoltStore(cfg.FavoritesPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open favorites: %w", err)
	}

	exports, err := storage.NewExportStore(cfg.ExportDir)
	if err != nil {
		favs.Close()
		db.Close()
		return nil, fmt.Errorf("failed to open export store: %w", err)
	}

	a := &App{
		cfg:          cfg,
		log:          log.WithComponent("app"),
		db:           db,
		products:     catalog.NewRepository(db.SQL),
		plans:        plan.NewRepository(db.SQL),
		favorites:    favs,
		exports:      exports,
		metricsStore: metrics.NewStore(db.SQL),
		verifier:     auth.NewVerifier(cfg.JWTSecret),
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.CatalogSeedPath != "" {
		if _, err := a.ImportSeed(ctx, cfg.CatalogSeedPath); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Close releases every store. Sessions must be closed first.
func (a *App) Close() error {
	a.coachMu.Lock()
	gen := a.textGen
	a.coachMu.Unlock()
	if c, ok := gen.(llm.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close llm client")
		}
	}
	if err := a.favorites.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close favorites")
	}
	return a.db.Close()
}

func (a *App) Config() *config.Config { return a.cfg }

// DB is the shared SQLite handle for stores owned by front-ends.
func (a *App) DB() *sql.DB { return a.db.SQL }

func (a *App) Verifier() *auth.Verifier { return a.verifier }

func (a *App) Plans() *plan.Repository { return a.plans }

func (a *App) Products() *catalog.Repository { return a.products }

func (a *App) Exports() *storage.ExportStore { return a.exports }

func (a *App) Metrics() *metrics.Store { return a.metricsStore }

// DataDir is the directory holding the database, reported by health checks.
func (a *App) DataDir() string { return filepath.Dir(a.cfg.DatabasePath) }

// OpenSession identifies the bearer of token and opens a hydrated session.
// An empty token opens a guest session; an invalid one is an error.
func (a *App) OpenSession(ctx context.Context, token string, p session.Params) (*session.Session, error) {
	id, err := a.verifier.Identify(token)
	if err != nil {
		return nil, err
	}
	p.UserID = id.UserID
	return a.OpenUserSession(ctx, p)
}

// OpenUserSession opens a session for an already trusted p.UserID.
func (a *App) OpenUserSession(ctx context.Context, p session.Params) (*session.Session, error) {
	if p.RacePlanID == "" {
		return nil, fmt.Errorf("race plan id is required")
	}

	cache := catalog.NewCache(a.products)
	if err := cache.Load(ctx); err != nil {
		return nil, err
	}

	s := session.New(p, session.Deps{
		Catalog:   cache,
		Plans:     a.plans,
		Favorites: a.favorites,
		Debounce:  a.cfg.SaveDebounce,
	})
	s.Init(ctx)
	return s, nil
}

// Export writes the session's per-hour export to the export store.
func (a *App) Export(s *session.Session) (string, error) {
	return a.exports.Save(s.RacePlanID(), s.Export())
}

// Packing builds the packing list for the session's plan.
func (a *App) Packing(s *session.Session) packing.List {
	return packing.Build(s.Hours(), s.Lookup())
}

// Brief writes a race-day briefing for the session's plan and records its
// token usage.
func (a *App) Brief(ctx context.Context, s *session.Session) (coach.Result, error) {
	b, err := a.coach(ctx)
	if err != nil {
		return coach.Result{}, err
	}
	p := s.Params()
	return b.Brief(ctx, coach.Input{
		Race:            p.Race,
		Athlete:         p.Athlete,
		Weather:         p.Weather,
		Targets:         s.HourlyTargets(),
		Plan:            s.Export(),
		Warnings:        s.Warnings(),
		Recommendations: s.Recommendations(),
	})
}

func (a *App) coach(ctx context.Context) (*coach.Briefer, error) {
	a.coachMu.Lock()
	defer a.coachMu.Unlock()
	if a.briefer != nil {
		return a.briefer, nil
	}
	if a.textGen == nil {
		gen, err := llm.New(ctx, a.cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		cached, err := llm.NewCachedGenerator(gen, filepath.Join(a.DataDir(), "briefings.json"))
		if err != nil {
			return nil, err
		}
		a.textGen = cached
	}
	a.briefer = coach.NewBriefer(a.textGen, a.metricsStore)
	return a.briefer, nil
}
