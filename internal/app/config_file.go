package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	LLM struct {
		BaseURL      string `yaml:"base" json:"base"`
		Model        string `yaml:"model" json:"model"`
		APIKey       string `yaml:"key" json:"key"`
		SystemPrompt string `yaml:"systemPrompt" json:"systemPrompt"`
	} `yaml:"llm" json:"llm"`

	App struct {
		Name     string `yaml:"name" json:"name"`
		Homepage string `yaml:"homepage" json:"homepage"`
	} `yaml:"app" json:"app"`

	Store struct {
		Driver      string `yaml:"driver" json:"driver"`
		Path        string `yaml:"path" json:"path"`
		StrictPerms bool   `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"store" json:"store"`

	Cache struct {
		Dir          string        `yaml:"dir" json:"dir"`
		MaxAge       time.Duration `yaml:"maxAge" json:"maxAge"`
		MaxEntries   int           `yaml:"maxEntries" json:"maxEntries"`
		Clear        bool          `yaml:"clear" json:"clear"`
		StrictPerms  bool          `yaml:"strictPerms" json:"strictPerms"`
		Disable      bool          `yaml:"disable" json:"disable"`
		SnapshotSize int           `yaml:"snapshotSize" json:"snapshotSize"`
		SnapshotTTL  time.Duration `yaml:"snapshotTTL" json:"snapshotTTL"`
	} `yaml:"cache" json:"cache"`

	Max struct {
		ArticleChars int `yaml:"articleChars" json:"articleChars"`
	} `yaml:"max" json:"max"`
	ReservedOutputTokens int `yaml:"reservedOutputTokens" json:"reservedOutputTokens"`

	Features struct {
		Summarization bool `yaml:"summarization" json:"summarization"`
		ModelCompare  bool `yaml:"modelCompare" json:"modelCompare"`
		Citations     bool `yaml:"citations" json:"citations"`
		Export        bool `yaml:"export" json:"export"`
	} `yaml:"features" json:"features"`

	Compare struct {
		Models      []string `yaml:"models" json:"models"`
		Concurrency int      `yaml:"concurrency" json:"concurrency"`
	} `yaml:"compare" json:"compare"`

	Render struct {
		Browser     string        `yaml:"browser" json:"browser"`
		UserAgent   string        `yaml:"userAgent" json:"userAgent"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout"`
		InsecureTLS bool          `yaml:"insecureTLS" json:"insecureTLS"`
	} `yaml:"render" json:"render"`

	Server struct {
		Addr         string        `yaml:"addr" json:"addr"`
		AwaitTimeout time.Duration `yaml:"awaitTimeout" json:"awaitTimeout"`
	} `yaml:"server" json:"server"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig fills fields of cfg that are still zero from fc. Flags are
// parsed first, so explicit flags win over the file.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}
	setBool := func(dst *bool, v bool) {
		if !*dst && v {
			*dst = true
		}
	}

	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)
	setStr(&cfg.SystemPrompt, fc.LLM.SystemPrompt)
	setStr(&cfg.AppName, fc.App.Name)
	setStr(&cfg.AppHomepage, fc.App.Homepage)

	setStr(&cfg.StoreDriver, fc.Store.Driver)
	setStr(&cfg.StorePath, fc.Store.Path)
	setBool(&cfg.StoreStrictPerms, fc.Store.StrictPerms)

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	setDur(&cfg.CacheMaxAge, fc.Cache.MaxAge)
	setInt(&cfg.CacheMaxEntries, fc.Cache.MaxEntries)
	setBool(&cfg.CacheClear, fc.Cache.Clear)
	setBool(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)
	setBool(&cfg.NoAnswerCache, fc.Cache.Disable)
	setInt(&cfg.SnapshotCacheSize, fc.Cache.SnapshotSize)
	setDur(&cfg.SnapshotTTL, fc.Cache.SnapshotTTL)

	setInt(&cfg.MaxArticleChars, fc.Max.ArticleChars)
	setInt(&cfg.ReservedOutputTokens, fc.ReservedOutputTokens)

	setBool(&cfg.Summarization, fc.Features.Summarization)
	setBool(&cfg.ModelCompare, fc.Features.ModelCompare)
	setBool(&cfg.Citations, fc.Features.Citations)
	setBool(&cfg.Export, fc.Features.Export)
	if len(cfg.CompareModels) == 0 && len(fc.Compare.Models) > 0 {
		cfg.CompareModels = append([]string{}, fc.Compare.Models...)
	}
	setInt(&cfg.CompareConcurrency, fc.Compare.Concurrency)

	setStr(&cfg.RenderBrowser, fc.Render.Browser)
	setStr(&cfg.UserAgent, fc.Render.UserAgent)
	setDur(&cfg.FetchTimeout, fc.Render.Timeout)
	setBool(&cfg.InsecureTLS, fc.Render.InsecureTLS)

	setStr(&cfg.ServerAddr, fc.Server.Addr)
	setDur(&cfg.AwaitTimeout, fc.Server.AwaitTimeout)
	setBool(&cfg.Verbose, fc.Verbose)
}

// ValidateConfig rejects settings the application cannot run with.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	switch cfg.StoreDriver {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("config: unknown store driver %q", cfg.StoreDriver)
	}
	if cfg.MaxArticleChars < 0 || cfg.ReservedOutputTokens < 0 || cfg.SnapshotCacheSize < 0 || cfg.CompareConcurrency < 0 || cfg.CacheMaxEntries < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.CacheMaxAge < 0 || cfg.SnapshotTTL < 0 || cfg.FetchTimeout < 0 || cfg.AwaitTimeout < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	return nil
}
