package features

import (
	"context"
	"sync"
	"time"

	"github.com/hyperifyio/askpage/internal/extract"
)

// Citation records where an answer's supporting text came from.
type Citation struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}

// CitationTracker marks answers with a citation to the selection they
// were derived from.
type CitationTracker struct {
	toggle
	// Now defaults to time.Now.
	Now func() time.Time

	mu    sync.Mutex
	order []string
	byKey map[string][]Citation
}

func (c *CitationTracker) Name() string { return "citations" }

func (c *CitationTracker) Transform(_ context.Context, text string, pc *extract.PageContext) (string, error) {
	if !c.Enabled() {
		return text, nil
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	cit := Citation{Timestamp: now().UTC()}
	if pc != nil {
		cit.Text = pc.SelectedText
		cit.Source = pc.URL
		cit.Context = pc.SurroundingParagraph
	}

	c.mu.Lock()
	if c.byKey == nil {
		c.byKey = make(map[string][]Citation)
	}
	if _, seen := c.byKey[text]; !seen {
		c.order = append(c.order, text)
	}
	c.byKey[text] = []Citation{cit}
	c.mu.Unlock()

	return text + " [1]", nil
}

// Citations returns every tracked citation in first-seen order.
func (c *CitationTracker) Citations() []Citation {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Citation
	for _, k := range c.order {
		out = append(out, c.byKey[k]...)
	}
	return out
}

func (c *CitationTracker) Clear() {
	c.mu.Lock()
	c.order = nil
	c.byKey = nil
	c.mu.Unlock()
}
