package features

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/askpage/internal/extract"
)

func TestSummarizer(t *testing.T) {
	s := &Summarizer{}
	ctx := context.Background()
	out, err := Apply(ctx, "unchanged", nil, s)
	require.NoError(t, err)
	assert.Equal(t, "unchanged", out)

	s.SetEnabled(true)
	out, err = Apply(ctx, "short", nil, s)
	require.NoError(t, err)
	assert.Equal(t, "Summary: short...", out)

	long := strings.Repeat("é", 250)
	out, err = s.Transform(ctx, long, nil)
	require.NoError(t, err)
	assert.Equal(t, "Summary: "+strings.Repeat("é", 200)+"...", out)
}

func TestCitationTracker(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := &CitationTracker{Now: func() time.Time { return fixed }}
	pc := &extract.PageContext{
		SelectionContext: extract.SelectionContext{SelectedText: "sel", SurroundingParagraph: "para"},
		URL:              "https://example.com",
	}
	ctx := context.Background()

	out, err := Apply(ctx, "answer", pc, c)
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.Empty(t, c.Citations())

	c.SetEnabled(true)
	out, err = Apply(ctx, "answer", pc, c)
	require.NoError(t, err)
	assert.Equal(t, "answer [1]", out)
	_, _ = c.Transform(ctx, "second", nil)
	_, _ = c.Transform(ctx, "answer", pc)

	got := c.Citations()
	require.Len(t, got, 2)
	assert.Equal(t, Citation{Text: "sel", Source: "https://example.com", Context: "para", Timestamp: fixed}, got[0])
	assert.Equal(t, Citation{Timestamp: fixed}, got[1])

	c.Clear()
	assert.Empty(t, c.Citations())
}

type failing struct{ toggle }

func (f *failing) Name() string { return "failing" }
func (f *failing) Transform(context.Context, string, *extract.PageContext) (string, error) {
	return "", errors.New("nope")
}

func TestApply_StopsOnErrorAndSkipsDisabled(t *testing.T) {
	f := &failing{}
	s := &Summarizer{}
	s.SetEnabled(true)
	out, err := Apply(context.Background(), "x", nil, f, s)
	require.NoError(t, err)
	assert.Equal(t, "Summary: x...", out)

	f.SetEnabled(true)
	out, err = Apply(context.Background(), "x", nil, s, f)
	require.Error(t, err)
	assert.Equal(t, "x", out)
}

func TestModelComparer_Disabled(t *testing.T) {
	m := &ModelComparer{}
	got, err := m.Compare(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, []Comparison{{Model: "google/gemini-pro-1.5", Response: "Model comparison is disabled"}}, got)
	assert.Equal(t, DefaultCompareModels, m.AvailableModels())
}

func TestModelComparer_ParallelKeepsOrder(t *testing.T) {
	m := &ModelComparer{
		Concurrency: 2,
		Ask: func(ctx context.Context, model, prompt string) (string, error) {
			if model == "bad" {
				return "", errors.New("status 500")
			}
			if model == "slow" {
				time.Sleep(20 * time.Millisecond)
			}
			return model + ":" + prompt, nil
		},
	}
	m.SetEnabled(true)
	got, err := m.Compare(context.Background(), "p", []string{"slow", "bad", "fast"})
	require.NoError(t, err)
	assert.Equal(t, []Comparison{
		{Model: "slow", Response: "slow:p"},
		{Model: "bad", Error: "status 500"},
		{Model: "fast", Response: "fast:p"},
	}, got)
}

func TestModelComparer_DefaultsToAvailable(t *testing.T) {
	m := &ModelComparer{
		Models: []string{"a", "b"},
		Ask:    func(_ context.Context, model, _ string) (string, error) { return model, nil },
	}
	m.SetEnabled(true)
	got, err := m.Compare(context.Background(), "p", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Model)
	assert.Equal(t, "b", got[1].Response)
}

func TestModelComparer_Unconfigured(t *testing.T) {
	m := &ModelComparer{}
	m.SetEnabled(true)
	_, err := m.Compare(context.Background(), "p", nil)
	assert.Error(t, err)
}
