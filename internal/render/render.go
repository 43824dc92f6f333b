// Package render obtains a page's HTML, either by fetching it or by
// loading it in a headless browser, and snapshots it into a dom.Document.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hyperifyio/askpage/internal/dom"
	"github.com/hyperifyio/askpage/internal/fetch"
)

// Renderer returns the HTML of the page at url.
type Renderer interface {
	Render(ctx context.Context, url string) (fetch.Page, error)
}

// HTTPRenderer returns the server-sent HTML without running scripts.
type HTTPRenderer struct {
	Client *fetch.Client
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (fetch.Page, error) {
	c := r.Client
	if c == nil {
		c = &fetch.Client{MaxAttempts: 2}
	}
	return c.Get(ctx, url)
}

// Snapshot renders url with r and parses the result.
func Snapshot(ctx context.Context, r Renderer, url string) (*dom.Document, error) {
	page, err := r.Render(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	pageURL := page.URL
	if pageURL == "" {
		pageURL = url
	}
	doc, err := dom.Parse(bytes.NewReader(page.Body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}
