// Package coach writes a plain-language race-day briefing for a finished plan.
package coach

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"fuelplanner/internal/llm"
	"fuelplanner/internal/nutrition"
	"fuelplanner/internal/shared"
	"fuelplanner/internal/timeline"
)

const agentName = "Briefer"

//go:embed briefing_prompt.md
var briefingPrompt string

var briefingTemplate = template.Must(template.New("briefing").Parse(briefingPrompt))

// Input is everything the briefing is written from.
type Input struct {
	Race            nutrition.RaceContext
	Athlete         nutrition.AthleteContext
	Weather         nutrition.WeatherContext
	Targets         nutrition.HourlyTargets
	Plan            []timeline.HourExport
	Warnings        []string
	Recommendations []string
}

type promptData struct {
	Input
	Hours     int
	StartTime string
}

// Result is the briefing text with the usage of the call that produced it.
type Result struct {
	Text string
	Meta shared.AgentMeta
}

// Recorder stores agent usage.
type Recorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

type Briefer struct {
	generator llm.TextGenerator
	recorder  Recorder
}

// NewBriefer returns a Briefer. recorder may be nil.
func NewBriefer(generator llm.TextGenerator, recorder Recorder) *Briefer {
	return &Briefer{generator: generator, recorder: recorder}
}

// Brief asks the model for a briefing. An empty plan is rejected before any
// call is made.
func (b *Briefer) Brief(ctx context.Context, in Input) (Result, error) {
	if !hasEntries(in.Plan) {
		return Result{}, fmt.Errorf("plan has no products to brief")
	}

	start := time.Now()
	prompt, err := buildPrompt(in)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build briefing prompt: %w", err)
	}

	resp, err := b.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate briefing: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: agentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
		Cached:    resp.Usage.TotalTokens == 0,
	}
	if b.recorder != nil {
		if err := b.recorder.RecordMeta(ctx, meta); err != nil {
			return Result{}, fmt.Errorf("failed to record briefing usage: %w", err)
		}
	}

	return Result{Text: strings.TrimSpace(resp.Content), Meta: meta}, nil
}

func buildPrompt(in Input) (string, error) {
	data := promptData{
		Input:     in,
		Hours:     len(in.Plan),
		StartTime: in.Race.StartTimeOfDay,
	}

	var buf bytes.Buffer
	if err := briefingTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func hasEntries(plan []timeline.HourExport) bool {
	for _, h := range plan {
		if len(h.Products) > 0 {
			return true
		}
	}
	return false
}
