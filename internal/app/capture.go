package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/askpage/internal/answer"
	"github.com/hyperifyio/askpage/internal/budget"
	"github.com/hyperifyio/askpage/internal/dom"
	"github.com/hyperifyio/askpage/internal/extract"
	"github.com/hyperifyio/askpage/internal/prompt"
	"github.com/hyperifyio/askpage/internal/render"
	"github.com/hyperifyio/askpage/internal/store"
)

// ErrNoPage is returned when a capture names neither HTML nor a URL.
var ErrNoPage = errors.New("capture needs html or url")

// questionAllowance is the prompt space kept for the user's question when
// the article is bounded before the question is known.
const questionAllowance = 2000

// maxPending bounds how many finished captures stay awaitable. Captures
// still in flight are never evicted.
const maxPending = 64

// CaptureRequest describes one selection on one page.
type CaptureRequest struct {
	URL string `json:"url"`
	// HTML, when set, is snapshotted directly instead of loading URL.
	HTML         string `json:"html,omitempty"`
	SelectedText string `json:"selectedText"`
	// AnchorID selects the element with this id attribute instead of
	// searching the page for SelectedText.
	AnchorID string `json:"anchorId,omitempty"`
	TabID    int    `json:"tabId,omitempty"`
	// Refresh reloads URL even when a snapshot of it is cached.
	Refresh bool `json:"refresh,omitempty"`
}

// CaptureResult is the outcome of a capture. Context is nil when the
// selection could not be located on the page.
type CaptureResult struct {
	SelectionID string               `json:"selectionId"`
	Context     *extract.PageContext `json:"context"`
}

type pending struct {
	done chan struct{}
	pc   *extract.PageContext
	err  error
}

func (p *pending) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Capture records the selection, snapshots the page, derives and formats
// the selection's context and persists it. Waiters on the selection ID are
// released only after the context is stored.
func (a *App) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	id := uuid.NewString()
	res := CaptureResult{SelectionID: id}
	a.begin(id)

	pc, err := a.capture(ctx, id, req)
	a.finish(id, pc, err)
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("capture failed")
		return res, err
	}
	res.Context = pc
	return res, nil
}

func (a *App) capture(ctx context.Context, id string, req CaptureRequest) (*extract.PageContext, error) {
	if err := a.selectAndClear(ctx, store.Selection{ID: id, Text: req.SelectedText, TabID: req.TabID}); err != nil {
		return nil, err
	}

	doc, err := a.snapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	var sel dom.Selection
	if req.AnchorID != "" {
		if el := doc.FindFirst(doc.Root(), func(n dom.NodeID) bool { return doc.ID(n) == req.AnchorID }); el != dom.None {
			sel = dom.SelectNode(doc, el)
		}
	} else if r, ok := dom.FindText(doc, req.SelectedText); ok {
		sel = dom.NewSelection(r)
	}

	sc, err := a.extractor.SelectionContext(doc, sel, req.SelectedText)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		log.Debug().Str("url", doc.URL()).Msg("selection not found on page")
		return nil, nil
	}

	pc := extract.Merge(*sc, a.extractor.ExtractArticle(doc))
	settings, err := store.LoadSettings(ctx, a.store)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if budget.BoundArticle(pc, budget.Options{
		Model:                settings.Model,
		ReservedOutputTokens: a.cfg.ReservedOutputTokens,
		MaxArticleChars:      a.cfg.MaxArticleChars,
		FrameChars:           len(prompt.Template) + len(answer.SystemPrompt) + questionAllowance,
	}) {
		log.Debug().Str("model", settings.Model).Int("articleChars", len(pc.ArticleContent.Content)).Msg("article truncated to fit context window")
	}
	pc.FormattedContext = extract.FormatContextForPrompt(pc)

	if err := a.persistIfCurrent(ctx, id, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// selectAndClear makes sel the current selection and drops the previous
// selection's context. A context belongs to exactly one selection.
func (a *App) selectAndClear(ctx context.Context, sel store.Selection) error {
	a.selMu.Lock()
	defer a.selMu.Unlock()
	if err := store.SaveSelection(ctx, a.store, sel); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	if err := a.store.Delete(ctx, store.KeyPageContext); err != nil {
		return fmt.Errorf("clear context: %w", err)
	}
	return nil
}

// persistIfCurrent stores pc only while id is still the current selection,
// so a slow capture never overwrites the context of a newer one.
func (a *App) persistIfCurrent(ctx context.Context, id string, pc *extract.PageContext) error {
	a.selMu.Lock()
	defer a.selMu.Unlock()
	cur, err := store.LoadSelection(ctx, a.store)
	if err != nil {
		return fmt.Errorf("load selection: %w", err)
	}
	if cur == nil || cur.ID != id {
		log.Debug().Str("selection", id).Msg("superseded capture; context not stored")
		return nil
	}
	if err := store.SavePageContext(ctx, a.store, pc); err != nil {
		return fmt.Errorf("save context: %w", err)
	}
	return nil
}

func (a *App) snapshot(ctx context.Context, req CaptureRequest) (*dom.Document, error) {
	if req.HTML != "" {
		return dom.ParseString(req.HTML, req.URL)
	}
	if req.URL == "" {
		return nil, ErrNoPage
	}
	if req.Refresh {
		a.snapshots.Invalidate(req.URL)
	} else if doc, ok := a.snapshots.Get(req.URL); ok {
		return doc, nil
	}
	doc, err := render.Snapshot(ctx, a.renderer, req.URL)
	if err != nil {
		return nil, err
	}
	a.snapshots.Set(req.URL, doc)
	return doc, nil
}

func (a *App) begin(id string) {
	a.readyMu.Lock()
	defer a.readyMu.Unlock()
	a.ready[id] = &pending{done: make(chan struct{})}
	a.order = append(a.order, id)
	excess := len(a.order) - maxPending
	if excess <= 0 {
		return
	}
	// Oldest finished entries go first; unfinished ones keep their waiters.
	kept := a.order[:0]
	for _, old := range a.order {
		if p := a.ready[old]; excess > 0 && (p == nil || p.finished()) {
			delete(a.ready, old)
			excess--
			continue
		}
		kept = append(kept, old)
	}
	a.order = kept
}

func (a *App) finish(id string, pc *extract.PageContext, err error) {
	a.readyMu.Lock()
	defer a.readyMu.Unlock()
	p, ok := a.ready[id]
	if !ok {
		return
	}
	p.pc, p.err = pc, err
	close(p.done)
}

// AwaitContext blocks until the capture identified by selectionID has
// persisted its context, then returns it. Unknown IDs return the current
// stored context immediately.
func (a *App) AwaitContext(ctx context.Context, selectionID string) (*extract.PageContext, error) {
	a.readyMu.Lock()
	p, ok := a.ready[selectionID]
	a.readyMu.Unlock()
	if !ok {
		return a.CurrentContext(ctx)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.pc != nil {
		return p.pc, nil
	}
	return a.CurrentContext(ctx)
}

// CurrentContext returns the stored context, or a minimal one built from
// the current selection when no context was stored. Nil means nothing is
// selected.
func (a *App) CurrentContext(ctx context.Context) (*extract.PageContext, error) {
	pc, err := store.LoadPageContext(ctx, a.store)
	if err != nil || pc != nil {
		return pc, err
	}
	sel, err := store.LoadSelection(ctx, a.store)
	if err != nil || sel == nil {
		return nil, err
	}
	return &extract.PageContext{SelectionContext: extract.SelectionContext{
		SelectedText:         sel.Text,
		SurroundingParagraph: sel.Text,
	}}, nil
}
