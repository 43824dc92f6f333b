package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/askpage/internal/app"
)

const page = `<html><head><title>Guide</title></head><body>
<article><h2>Intro</h2><p>Hello <b>world</b></p></article></body></html>`

func writePage(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(p, []byte(page), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}
	return p
}

func testConfig(t *testing.T, baseURL string) app.Config {
	dir := t.TempDir()
	return app.Config{
		LLMBaseURL:    baseURL,
		LLMAPIKey:     "test-key",
		StorePath:     filepath.Join(dir, "store"),
		CacheDir:      filepath.Join(dir, "cache"),
		NoAnswerCache: true,
	}
}

func TestRun_ContextOnly(t *testing.T) {
	var out bytes.Buffer
	opts := options{htmlPath: writePage(t), url: "https://example.com/guide", selection: "world", contextOnly: true}
	if err := run(context.Background(), testConfig(t, ""), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Page: Guide", "Section hierarchy:\nIntro", `"world"`, `"Hello world"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_AskPrintsAnswer(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Messages[len(req.Messages)-1].Content
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"It is a greeting."}}]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	opts := options{htmlPath: writePage(t), selection: "world", question: "What is this?"}
	if err := run(context.Background(), testConfig(t, srv.URL+"/v1"), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out.String()) != "It is a greeting." {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !strings.Contains(prompt, "What is this?") || !strings.Contains(prompt, `"Hello world"`) {
		t.Fatalf("prompt missing question or context:\n%s", prompt)
	}
}

func TestRun_Usage(t *testing.T) {
	cases := []options{
		{},
		{htmlPath: "x.html"},
	}
	for _, opts := range cases {
		err := run(context.Background(), testConfig(t, ""), opts, &bytes.Buffer{})
		if !errors.Is(err, errUsage) {
			t.Fatalf("expected usage error for %+v, got %v", opts, err)
		}
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "askpage.yaml")
	yml := "llm:\n  model: file/model\n  base: https://file.example/v1\nstore:\n  driver: sqlite\n"
	if err := os.WriteFile(cfgPath, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLM_BASE_URL", "https://env.example/v1")
	t.Setenv("LLM_MODEL", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var f app.Config
	fs.StringVar(&f.LLMModel, "llm.model", "", "")
	fs.StringVar(&f.StoreDriver, "store.driver", "", "")
	if err := fs.Parse([]string{"-llm.model", "flag/model"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, options{configPath: cfgPath, envPath: filepath.Join(dir, "missing.env")}, f)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LLMModel != "flag/model" {
		t.Fatalf("flag should win, got %q", cfg.LLMModel)
	}
	if cfg.LLMBaseURL != "https://env.example/v1" {
		t.Fatalf("env should beat file, got %q", cfg.LLMBaseURL)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Fatalf("unset flag must not clobber file value, got %q", cfg.StoreDriver)
	}
}
