package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/askpage/internal/fetch"
)

// RodRenderer loads pages in Chrome through the DevTools protocol, so the
// snapshot reflects the DOM after scripts ran.
type RodRenderer struct {
	// ControlURL is a DevTools websocket URL. Empty launches a local browser.
	ControlURL string
	Headless   bool
	// Timeout bounds navigation and load. Zero means 30s.
	Timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// connect is lazy. The browser outlives any single request, so it is not
// bound to a request context.
func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}
	controlURL := r.ControlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(r.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	log.Debug().Str("control", controlURL).Msg("browser connected")
	r.browser = b
	return b, nil
}

func (r *RodRenderer) Render(ctx context.Context, url string) (fetch.Page, error) {
	b, err := r.connect()
	if err != nil {
		return fetch.Page{}, err
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fetch.Page{}, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	p := page.Timeout(timeout)
	if err := p.WaitLoad(); err != nil {
		return fetch.Page{}, fmt.Errorf("wait load: %w", err)
	}
	html, err := p.HTML()
	if err != nil {
		return fetch.Page{}, fmt.Errorf("read html: %w", err)
	}
	finalURL := url
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}
	return fetch.Page{URL: finalURL, ContentType: "text/html; charset=utf-8", Body: []byte(html)}, nil
}

// Close disconnects from the browser if one was connected.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
