package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadConfigFile_YAML(t *testing.T) {
	p := writeFile(t, "askpage.yaml", `
llm:
  base: https://llm.example/v1
  model: openai/gpt-4o-mini
store:
  driver: sqlite
  path: /tmp/askpage.db
cache:
  maxAge: 24h
max:
  articleChars: 8000
features:
  citations: true
compare:
  models: [a, b]
render:
  browser: launch
server:
  addr: ":9000"
`)
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var cfg Config
	ApplyFileConfig(&cfg, fc)
	if cfg.LLMBaseURL != "https://llm.example/v1" || cfg.LLMModel != "openai/gpt-4o-mini" {
		t.Fatalf("llm section not applied: %+v", cfg)
	}
	if cfg.StoreDriver != "sqlite" || cfg.StorePath != "/tmp/askpage.db" {
		t.Fatalf("store section not applied: %+v", cfg)
	}
	if cfg.CacheMaxAge != 24*time.Hour || cfg.MaxArticleChars != 8000 {
		t.Fatalf("limits not applied: %+v", cfg)
	}
	if !cfg.Citations || cfg.Summarization {
		t.Fatalf("features not applied: %+v", cfg)
	}
	if strings.Join(cfg.CompareModels, ",") != "a,b" || cfg.RenderBrowser != "launch" || cfg.ServerAddr != ":9000" {
		t.Fatalf("compare/render/server not applied: %+v", cfg)
	}
}

func TestLoadConfigFile_JSONAndUnknownExtension(t *testing.T) {
	p := writeFile(t, "askpage.json", `{"llm":{"model":"m-json"}}`)
	fc, err := LoadConfigFile(p)
	if err != nil || fc.LLM.Model != "m-json" {
		t.Fatalf("json: %v %+v", err, fc.LLM)
	}
	p = writeFile(t, "askpage.conf", "llm:\n  model: m-yaml\n")
	fc, err = LoadConfigFile(p)
	if err != nil || fc.LLM.Model != "m-yaml" {
		t.Fatalf("fallback: %v %+v", err, fc.LLM)
	}
	if _, err := LoadConfigFile(writeFile(t, "bad.yaml", "llm: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}

// Flags are applied first, then the file, then env overrides, then flags
// again; a value set on the command line therefore survives both layers.
func TestConfigPrecedence_FlagsEnvFileDefaults(t *testing.T) {
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("SERVER_ADDR", "")
	fc, err := LoadConfigFile(writeFile(t, "c.yaml", "llm:\n  model: file-model\n  base: https://file.example\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	flags := Config{ServerAddr: ":1234"}
	cfg := flags
	ApplyFileConfig(&cfg, fc)
	ApplyEnvOverrides(&cfg)
	if flags.ServerAddr != "" {
		cfg.ServerAddr = flags.ServerAddr
	}
	cfg = withDefaults(cfg)

	if cfg.LLMModel != "env-model" {
		t.Fatalf("env should beat file, got %q", cfg.LLMModel)
	}
	if cfg.LLMBaseURL != "https://file.example" {
		t.Fatalf("file should beat defaults, got %q", cfg.LLMBaseURL)
	}
	if cfg.ServerAddr != ":1234" {
		t.Fatalf("flag should win, got %q", cfg.ServerAddr)
	}
	if cfg.StoreDriver != DefaultStoreDriver || cfg.ReservedOutputTokens != DefaultReservedOutputTokens {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	ok := Config{LLMModel: "m"}
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cases := map[string]Config{
		"empty model":    {},
		"unknown driver": {LLMModel: "m", StoreDriver: "redis"},
		"negative chars": {LLMModel: "m", MaxArticleChars: -1},
		"negative ttl":   {LLMModel: "m", SnapshotTTL: -time.Second},
	}
	for name, cfg := range cases {
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
