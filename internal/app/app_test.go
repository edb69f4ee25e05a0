package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelplanner/internal/auth"
	"fuelplanner/internal/catalog"
	"fuelplanner/internal/config"
	"fuelplanner/internal/llm"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/session"
	"fuelplanner/internal/shared"
)

const seedYAML = `products:
  - id: maurten-gel-100
    brand: Maurten
    name: Gel 100
    category: gel
    calories: 100
    carbs_grams: 25
    sodium_mg: 20
    glucose_fructose_ratio: "1:0.8"
  - id: skratch-mix
    brand: Skratch
    name: Sport Hydration Mix
    category: drink_mix
    calories: 80
    carbs_grams: 20
    sodium_mg: 380
    water_content_ml: 500
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(seedYAML), 0o644))
	return &config.Config{
		DatabasePath:    filepath.Join(dir, "data", "fuelplan.db"),
		FavoritesPath:   filepath.Join(dir, "data", "favorites.db"),
		ExportDir:       filepath.Join(dir, "data", "exports"),
		CatalogSeedPath: seed,
		SaveDebounce:    time.Hour,
		JWTSecret:       "test-secret",
	}
}

func params() session.Params {
	return session.Params{
		RacePlanID: "ironman-70.3",
		Race:       nutrition.RaceContext{DurationMinutes: 300, StartTimeOfDay: "07:00"},
		Athlete:    nutrition.AthleteContext{WeightKg: 70, SweatRate: nutrition.SweatMedium, GutTraining: nutrition.GutModerate},
		Weather:    nutrition.WeatherContext{TemperatureF: 75, HumidityPercent: 50},
	}
}

func TestNewImportsSeed(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	products, err := a.Products().ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestOpenSessionIdentifiesToken(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	token, err := a.Verifier().Issue("athlete-1", time.Hour)
	require.NoError(t, err)

	s, err := a.OpenSession(ctx, token, params())
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.Guest())
	assert.Len(t, s.Hours(), 5)

	guest, err := a.OpenSession(ctx, "", params())
	require.NoError(t, err)
	defer guest.Close()
	assert.True(t, guest.Guest())

	_, err = a.OpenSession(ctx, "not-a-token", params())
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	p := params()
	p.RacePlanID = ""
	_, err = a.OpenUserSession(ctx, p)
	assert.Error(t, err)
}

func TestExportAndPacking(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	p := params()
	p.UserID = "athlete-1"
	s, err := a.OpenUserSession(ctx, p)
	require.NoError(t, err)
	defer s.Close()

	s.Dispatch(session.AddProduct{HourIndex: 0, ProductID: "maurten-gel-100"})
	s.Dispatch(session.AddProduct{HourIndex: 1, ProductID: "maurten-gel-100"})

	path, err := a.Export(s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "ironman-70.3_"))

	latest, err := a.Exports().Latest("ironman-70.3")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Len(t, latest.Hours, 5)

	list := a.Packing(s)
	require.Len(t, list.Lines, 1)
	assert.Equal(t, 2, list.Lines[0].Quantity)
	assert.Equal(t, []int{1, 2}, list.Lines[0].Hours)
}

type stubGenerator struct{}

func (stubGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	return llm.ContentResponse{
		Content: "Take a gel every 30 minutes.",
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110, Model: "stub"},
	}, nil
}

func TestConcurrentBriefsShareOneBriefer(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), WithTextGenerator(stubGenerator{}))
	require.NoError(t, err)
	defer a.Close()

	sessions := make([]*session.Session, 4)
	for i := range sessions {
		p := params()
		p.RacePlanID = fmt.Sprintf("race-%d", i)
		s, err := a.OpenUserSession(ctx, p)
		require.NoError(t, err)
		defer s.Close()
		s.Dispatch(session.AddProduct{HourIndex: 0, ProductID: "maurten-gel-100"})
		sessions[i] = s
	}

	var wg sync.WaitGroup
	errs := make([]error, len(sessions))
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *session.Session) {
			defer wg.Done()
			_, errs[i] = a.Brief(ctx, s)
		}(i, s)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	first, err := a.coach(ctx)
	require.NoError(t, err)
	second, err := a.coach(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestImportLabel(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	html := `<html><body><h1>Endurance Gel</h1><span class="brand">Näak</span>
<table><tr><th>Carbohydrate</th><td>30 g</td></tr><tr><th>Sodium</th><td>200 mg</td></tr></table></body></html>`
	p, err := a.ImportLabel(ctx, strings.NewReader(html), catalog.CategoryGel)
	require.NoError(t, err)

	got, err := a.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 30.0, got.CarbsGrams)
}
