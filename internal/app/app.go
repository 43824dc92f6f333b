package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/askpage/internal/cache"
	"github.com/hyperifyio/askpage/internal/extract"
	"github.com/hyperifyio/askpage/internal/features"
	"github.com/hyperifyio/askpage/internal/fetch"
	"github.com/hyperifyio/askpage/internal/llm"
	"github.com/hyperifyio/askpage/internal/render"
	"github.com/hyperifyio/askpage/internal/store"
)

// ClientFactory returns a chat client authenticated with apiKey.
type ClientFactory func(apiKey string) llm.Client

// App wires the extractor, persistence, transport and optional features.
// All collaborators are explicit; there is no package-level state.
type App struct {
	cfg Config

	extractor *extract.Extractor
	store     store.Store
	renderer  render.Renderer
	snapshots *cache.SnapshotCache
	answers   *cache.AnswerCache
	newClient ClientFactory

	summarizer *features.Summarizer
	citations  *features.CitationTracker
	exporter   *features.Exporter

	// convMu serializes conversation read-modify-write.
	convMu sync.Mutex
	// selMu orders currentSelection updates against pageContext writes.
	selMu sync.Mutex

	readyMu sync.Mutex
	ready   map[string]*pending
	order   []string

	closers []func() error
}

// Option customizes New.
type Option func(*App)

// WithStore uses s instead of opening the configured backend.
func WithStore(s store.Store) Option { return func(a *App) { a.store = s } }

// WithRenderer uses r to obtain pages by URL.
func WithRenderer(r render.Renderer) Option { return func(a *App) { a.renderer = r } }

// WithClientFactory replaces the OpenAI-compatible transport.
func WithClientFactory(f ClientFactory) Option { return func(a *App) { a.newClient = f } }

// WithArticleExtractor replaces the naive article fallback.
func WithArticleExtractor(x extract.ArticleExtractor) Option {
	return func(a *App) { a.extractor.Articles = x }
}

// New builds an App from cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	cfg = withDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{
		cfg:        cfg,
		extractor:  extract.New(),
		summarizer: &features.Summarizer{},
		citations:  &features.CitationTracker{},
		exporter:   &features.Exporter{},
		ready:      make(map[string]*pending),
	}
	for _, o := range opts {
		o(a)
	}

	if a.newClient == nil {
		llmHTTP := newHTTPClient(2*time.Minute, cfg.InsecureTLS)
		a.newClient = func(apiKey string) llm.Client {
			return llm.NewOpenAIProvider(llm.Options{
				BaseURL:    cfg.LLMBaseURL,
				APIKey:     apiKey,
				Referer:    cfg.AppHomepage,
				Title:      cfg.AppName,
				HTTPClient: llmHTTP,
			})
		}
	}
	if a.store == nil {
		s, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
	}
	if a.renderer == nil {
		a.renderer = newRenderer(cfg, newHTTPClient(cfg.FetchTimeout, cfg.InsecureTLS))
		if rr, ok := a.renderer.(*render.RodRenderer); ok {
			a.closers = append(a.closers, rr.Close)
		}
	}
	snaps, err := cache.NewSnapshotCache(cfg.SnapshotCacheSize, cfg.SnapshotTTL)
	if err != nil {
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}
	a.snapshots = snaps
	a.closers = append(a.closers, func() error { snaps.Close(); return nil })

	if !cfg.NoAnswerCache {
		dir := filepath.Join(cfg.CacheDir, "answers")
		if cfg.CacheClear {
			if err := cache.ClearDir(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("cache clear failed")
			}
		}
		if n, err := cache.PurgeByAge(dir, cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("purged expired answers")
		}
		if n, err := cache.EnforceLimits(dir, cfg.CacheMaxEntries); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("evicted answers over limit")
		}
		a.answers = &cache.AnswerCache{Dir: dir, StrictPerms: cfg.CacheStrictPerms, MaxEntries: cfg.CacheMaxEntries}
	}

	if err := a.seedSettings(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// Close releases the store, browser and caches.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		path := cfg.StorePath
		if path != ":memory:" && filepath.Ext(path) == "" {
			path = filepath.Join(path, "askpage.db")
			if _, err := store.NewFileStore(cfg.StorePath, cfg.StoreStrictPerms); err != nil {
				return nil, err
			}
		}
		return store.OpenSQLite(ctx, path)
	default:
		return store.NewFileStore(cfg.StorePath, cfg.StoreStrictPerms)
	}
}

func newRenderer(cfg Config, hc *http.Client) render.Renderer {
	switch strings.ToLower(strings.TrimSpace(cfg.RenderBrowser)) {
	case "", "http":
		return &render.HTTPRenderer{Client: &fetch.Client{
			HTTPClient:        hc,
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       3,
			PerRequestTimeout: cfg.FetchTimeout,
		}}
	case "launch":
		return &render.RodRenderer{Headless: true, Timeout: cfg.FetchTimeout}
	default:
		return &render.RodRenderer{ControlURL: cfg.RenderBrowser, Headless: true, Timeout: cfg.FetchTimeout}
	}
}

// seedSettings stores the configured model and feature toggles the first
// time the app runs against an empty store.
func (a *App) seedSettings(ctx context.Context) error {
	var existing store.Settings
	err := a.store.Get(ctx, store.KeySettings, &existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load settings: %w", err)
	}
	return store.SaveSettings(ctx, a.store, store.Settings{
		Model: a.cfg.LLMModel,
		Features: store.Features{
			Summarization: a.cfg.Summarization,
			ModelCompare:  a.cfg.ModelCompare,
			Citations:     a.cfg.Citations,
			Export:        a.cfg.Export,
		},
	})
}
