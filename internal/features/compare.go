package features

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// DefaultCompareModels are offered when no list is configured.
var DefaultCompareModels = []string{
	"google/gemini-pro-1.5",
	"google/gemini-2.0-flash-001",
}

// AskFunc sends prompt to model and returns the answer text.
type AskFunc func(ctx context.Context, model, prompt string) (string, error)

// Comparison is one model's outcome.
type Comparison struct {
	Model    string `json:"model"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ModelComparer asks several models the same prompt concurrently.
type ModelComparer struct {
	toggle
	Models []string
	Ask    AskFunc
	// Concurrency caps in-flight requests; zero means one per model.
	Concurrency int
}

// AvailableModels returns the configured models or the defaults.
func (m *ModelComparer) AvailableModels() []string {
	if len(m.Models) > 0 {
		return append([]string(nil), m.Models...)
	}
	return append([]string(nil), DefaultCompareModels...)
}

// Compare runs prompt against models (all available ones when empty).
// Results keep the order of models. A failing model reports its error in
// its own result and does not cancel the others.
func (m *ModelComparer) Compare(ctx context.Context, prompt string, models []string) ([]Comparison, error) {
	available := m.AvailableModels()
	if !m.Enabled() {
		return []Comparison{{Model: available[0], Response: "Model comparison is disabled"}}, nil
	}
	if m.Ask == nil {
		return nil, errors.New("model comparer not configured")
	}
	if len(models) == 0 {
		models = available
	}

	out := make([]Comparison, len(models))
	g, gctx := errgroup.WithContext(ctx)
	if m.Concurrency > 0 {
		g.SetLimit(m.Concurrency)
	}
	for i, model := range models {
		i, model := i, model
		g.Go(func() error {
			out[i].Model = model
			resp, err := m.Ask(gctx, model, prompt)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Response = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
