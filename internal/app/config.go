package app

import (
	"time"

	"github.com/hyperifyio/askpage/internal/store"
)

// Defaults applied to zero-valued Config fields.
const (
	DefaultStoreDriver          = "file"
	DefaultStorePath            = ".askpage"
	DefaultCacheDir             = ".askpage-cache"
	DefaultServerAddr           = "127.0.0.1:8787"
	DefaultAppName              = "askpage"
	DefaultAppHomepage          = "https://github.com/hyperifyio/askpage"
	DefaultReservedOutputTokens = 1024
	DefaultSnapshotCacheSize    = 64
	DefaultSnapshotTTL          = 10 * time.Minute
	DefaultFetchTimeout         = 20 * time.Second
	DefaultAwaitTimeout         = 5 * time.Second
)

// Config holds runtime configuration for the application.
type Config struct {
	// LLM
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	SystemPrompt string
	// AppName and AppHomepage are sent as X-Title and HTTP-Referer.
	AppName     string
	AppHomepage string

	// Persistence
	StoreDriver      string
	StorePath        string
	StoreStrictPerms bool

	// Caching
	CacheDir          string
	CacheMaxAge       time.Duration
	CacheMaxEntries   int
	CacheClear        bool
	CacheStrictPerms  bool
	NoAnswerCache     bool
	SnapshotCacheSize int
	SnapshotTTL       time.Duration

	// Budgeting
	MaxArticleChars      int
	ReservedOutputTokens int

	// Features seed the stored settings the first time the app runs.
	Summarization bool
	ModelCompare  bool
	Citations     bool
	Export        bool

	CompareModels      []string
	CompareConcurrency int

	// Page acquisition. RenderBrowser is empty for plain HTTP, "launch" for
	// a local headless browser, or a DevTools control URL.
	RenderBrowser string
	UserAgent     string
	FetchTimeout  time.Duration
	// InsecureTLS accepts self-signed certificates.
	InsecureTLS bool

	// Server
	ServerAddr   string
	AwaitTimeout time.Duration

	Verbose bool
}

// withDefaults returns cfg with zero values replaced by defaults.
func withDefaults(cfg Config) Config {
	if cfg.LLMModel == "" {
		cfg.LLMModel = store.DefaultModel
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DefaultStoreDriver
	}
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultStorePath
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = DefaultServerAddr
	}
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}
	if cfg.AppHomepage == "" {
		cfg.AppHomepage = DefaultAppHomepage
	}
	if cfg.ReservedOutputTokens == 0 {
		cfg.ReservedOutputTokens = DefaultReservedOutputTokens
	}
	if cfg.SnapshotCacheSize == 0 {
		cfg.SnapshotCacheSize = DefaultSnapshotCacheSize
	}
	if cfg.SnapshotTTL == 0 {
		cfg.SnapshotTTL = DefaultSnapshotTTL
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.AwaitTimeout == 0 {
		cfg.AwaitTimeout = DefaultAwaitTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = cfg.AppName + "/" + BuildVersion + " (+" + cfg.AppHomepage + ")"
	}
	return cfg
}
