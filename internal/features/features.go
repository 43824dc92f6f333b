// Package features holds the optional capabilities applied around an
// answer: summarization, citation tracking, model comparison and export.
package features

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hyperifyio/askpage/internal/extract"
)

var (
	ErrExportDisabled    = errors.New("export functionality is disabled")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Transformer rewrites answer text. Disabled transformers are skipped.
type Transformer interface {
	Name() string
	Enabled() bool
	Transform(ctx context.Context, text string, pc *extract.PageContext) (string, error)
}

// Apply runs the enabled transformers in order.
func Apply(ctx context.Context, text string, pc *extract.PageContext, ts ...Transformer) (string, error) {
	for _, t := range ts {
		if t == nil || !t.Enabled() {
			continue
		}
		out, err := t.Transform(ctx, text, pc)
		if err != nil {
			return text, err
		}
		text = out
	}
	return text, nil
}

// toggle is an enable flag safe to flip while requests are in flight.
type toggle struct{ on atomic.Bool }

func (t *toggle) SetEnabled(v bool) { t.on.Store(v) }
func (t *toggle) Enabled() bool     { return t.on.Load() }

// Summarizer shortens answers to a fixed-length preview.
type Summarizer struct {
	toggle
}

const summaryRunes = 200

func (s *Summarizer) Name() string { return "summarization" }

func (s *Summarizer) Transform(_ context.Context, text string, _ *extract.PageContext) (string, error) {
	if !s.Enabled() {
		return text, nil
	}
	r := []rune(text)
	if len(r) > summaryRunes {
		r = r[:summaryRunes]
	}
	return "Summary: " + string(r) + "...", nil
}
