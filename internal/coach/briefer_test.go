package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelplanner/internal/llm"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/shared"
	"fuelplanner/internal/timeline"
)

type mockGenerator struct {
	prompt string
	resp   llm.ContentResponse
	err    error
}

func (m *mockGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompt = prompt
	return m.resp, m.err
}

type mockRecorder struct {
	metas []shared.AgentMeta
}

func (m *mockRecorder) RecordMeta(ctx context.Context, meta shared.AgentMeta) error {
	m.metas = append(m.metas, meta)
	return nil
}

func sampleInput() Input {
	return Input{
		Race:    nutrition.RaceContext{DurationMinutes: 120, StartTimeOfDay: "06:00"},
		Athlete: nutrition.AthleteContext{WeightKg: 68, SweatRate: nutrition.SweatHigh, GutTraining: nutrition.GutWellTrained},
		Weather: nutrition.WeatherContext{TemperatureF: 88, HumidityPercent: 60},
		Targets: nutrition.HourlyTargets{CarbsGramsTarget: 90, FluidMlTarget: 800, SodiumMgTarget: 900},
		Plan: []timeline.HourExport{
			{
				HourNumber: 1, StartTime: "06:00", Elapsed: "0:00-1:00", WaterMl: 500,
				Products: []timeline.ProductExport{{Name: "Gel 100", Brand: "Maurten", Quantity: 2, Carbs: 50}},
				Totals:   timeline.Totals{Carbs: 50, Fluid: 500, Sodium: 40},
			},
			{HourNumber: 2, StartTime: "07:00", Elapsed: "1:00-2:00"},
		},
		Warnings:        []string{"Sodium is below target in 2 of 2 hours at 88°F; heat raises sweat sodium losses"},
		Recommendations: []string{"Hour 1: well-balanced glucose:fructose mix"},
	}
}

func TestBriefRendersPlanIntoPrompt(t *testing.T) {
	gen := &mockGenerator{resp: llm.ContentResponse{
		Content: "  Take both gels in the first hour.\n",
		Usage:   shared.TokenUsage{PromptTokens: 300, CompletionTokens: 40, TotalTokens: 340, Model: "m"},
	}}
	rec := &mockRecorder{}

	res, err := NewBriefer(gen, rec).Brief(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "Take both gels in the first hour.", res.Text)
	assert.Equal(t, "Briefer", res.Meta.AgentName)
	assert.False(t, res.Meta.Cached)
	require.Len(t, rec.metas, 1)
	assert.Equal(t, 340, rec.metas[0].Usage.TotalTokens)

	assert.Contains(t, gen.prompt, "Race: 2 hours, starting at 06:00.")
	assert.Contains(t, gen.prompt, "68 kg, sweat rate high, gut training well_trained")
	assert.Contains(t, gen.prompt, "- Hour 1 (0:00-1:00, 06:00): 2x Maurten Gel 100; water 500 ml; carbs 50 g")
	assert.Contains(t, gen.prompt, "- Hour 2 (1:00-2:00, 07:00): nothing planned;")
	assert.Contains(t, gen.prompt, "- Sodium is below target in 2 of 2 hours")
	assert.Contains(t, gen.prompt, "- Hour 1: well-balanced glucose:fructose mix")
}

func TestBriefRejectsEmptyPlan(t *testing.T) {
	gen := &mockGenerator{}
	in := sampleInput()
	in.Plan = []timeline.HourExport{{HourNumber: 1, Elapsed: "0:00-1:00"}}

	_, err := NewBriefer(gen, nil).Brief(context.Background(), in)
	require.Error(t, err)
	assert.Empty(t, gen.prompt)
}

func TestBriefPropagatesGeneratorError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("quota exceeded")}
	rec := &mockRecorder{}

	_, err := NewBriefer(gen, rec).Brief(context.Background(), sampleInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, rec.metas)
}

func TestBriefFromCacheIsMarkedCached(t *testing.T) {
	gen := &mockGenerator{resp: llm.ContentResponse{Content: "cached text"}}

	res, err := NewBriefer(gen, nil).Brief(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.True(t, res.Meta.Cached)
}
