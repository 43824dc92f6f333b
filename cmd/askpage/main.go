package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/askpage/internal/answer"
	"github.com/hyperifyio/askpage/internal/app"
	"github.com/hyperifyio/askpage/internal/server"
)

// options are the one-shot and serving switches that are not part of app.Config.
type options struct {
	configPath  string
	envPath     string
	htmlPath    string
	url         string
	selection   string
	anchor      string
	question    string
	contextOnly bool
	serve       bool
	version     bool
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		opts  options
		flags app.Config
	)
	fs := flag.CommandLine
	fs.StringVar(&opts.configPath, "config", os.Getenv("ASKPAGE_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&opts.envPath, "env", ".env", "Path to dotenv file (missing file is ignored)")
	fs.StringVar(&opts.url, "url", "", "Page URL to load")
	fs.StringVar(&opts.htmlPath, "html", "", "Read page HTML from this file instead of loading -url")
	fs.StringVar(&opts.selection, "select", "", "Selected text to locate on the page")
	fs.StringVar(&opts.anchor, "anchor", "", "Select the element with this id instead of searching for -select")
	fs.StringVar(&opts.question, "q", "", "Question to ask about the selection")
	fs.BoolVar(&opts.contextOnly, "context-only", false, "Print the formatted context and exit without calling the model")
	fs.BoolVar(&opts.serve, "serve", false, "Serve the HTTP API")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	fs.StringVar(&flags.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&flags.LLMModel, "llm.model", "", "Default model name")
	fs.StringVar(&flags.LLMAPIKey, "llm.key", "", "API key for the model endpoint")
	fs.StringVar(&flags.StoreDriver, "store.driver", "", "Persistence driver: file or sqlite")
	fs.StringVar(&flags.StorePath, "store.path", "", "Store directory or SQLite database path")
	fs.StringVar(&flags.CacheDir, "cache.dir", "", "Cache directory path")
	fs.DurationVar(&flags.CacheMaxAge, "cache.maxAge", 0, "Purge cached answers older than this; 0 disables")
	fs.IntVar(&flags.CacheMaxEntries, "cache.maxEntries", 0, "Keep at most this many cached answers; 0 is unlimited")
	fs.BoolVar(&flags.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&flags.NoAnswerCache, "cache.off", false, "Disable the answer cache")
	fs.StringVar(&flags.RenderBrowser, "render.browser", "", `Page loader: empty for HTTP, "launch", or a DevTools URL`)
	fs.StringVar(&flags.ServerAddr, "server.addr", "", "Listen address for -serve")
	fs.IntVar(&flags.MaxArticleChars, "max.articleChars", 0, "Cap article content at this many characters; 0 uses the model budget only")
	fs.BoolVar(&flags.Verbose, "v", false, "Verbose logging")
	fs.Parse(os.Args[1:])

	if opts.version {
		fmt.Printf("askpage %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	cfg, err := loadConfig(fs, opts, flags)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		if errors.Is(err, answer.ErrMissingAPIKey) || errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// loadConfig resolves configuration with precedence flags > env > file > defaults.
func loadConfig(fs *flag.FlagSet, opts options, flags app.Config) (app.Config, error) {
	if err := app.LoadEnvFiles(opts.envPath); err != nil {
		return app.Config{}, fmt.Errorf("load env: %w", err)
	}
	var cfg app.Config
	if opts.configPath != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return app.Config{}, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	applyFlags(fs, &cfg, flags)
	return cfg, nil
}

// applyFlags copies only the flags that were set on the command line.
func applyFlags(fs *flag.FlagSet, cfg *app.Config, f app.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "llm.base":
			cfg.LLMBaseURL = f.LLMBaseURL
		case "llm.model":
			cfg.LLMModel = f.LLMModel
		case "llm.key":
			cfg.LLMAPIKey = f.LLMAPIKey
		case "store.driver":
			cfg.StoreDriver = f.StoreDriver
		case "store.path":
			cfg.StorePath = f.StorePath
		case "cache.dir":
			cfg.CacheDir = f.CacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = f.CacheMaxAge
		case "cache.maxEntries":
			cfg.CacheMaxEntries = f.CacheMaxEntries
		case "cache.clear":
			cfg.CacheClear = f.CacheClear
		case "cache.off":
			cfg.NoAnswerCache = f.NoAnswerCache
		case "render.browser":
			cfg.RenderBrowser = f.RenderBrowser
		case "server.addr":
			cfg.ServerAddr = f.ServerAddr
		case "max.articleChars":
			cfg.MaxArticleChars = f.MaxArticleChars
		case "v":
			cfg.Verbose = f.Verbose
		}
	})
}

var errUsage = errors.New("nothing to do: pass -serve, or -url/-html with -select and -q or -context-only")

func run(ctx context.Context, cfg app.Config, opts options, out io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if opts.serve {
		srv := server.New(a, log.Logger, a.Config().AwaitTimeout)
		return srv.ListenAndServe(ctx, a.Config().ServerAddr)
	}
	return oneShot(ctx, a, opts, out)
}

func oneShot(ctx context.Context, a *app.App, opts options, out io.Writer) error {
	if opts.url == "" && opts.htmlPath == "" {
		return errUsage
	}
	if !opts.contextOnly && strings.TrimSpace(opts.question) == "" {
		return errUsage
	}
	req := app.CaptureRequest{URL: opts.url, SelectedText: opts.selection, AnchorID: opts.anchor}
	if opts.htmlPath != "" {
		b, err := os.ReadFile(opts.htmlPath)
		if err != nil {
			return fmt.Errorf("read html: %w", err)
		}
		req.HTML = string(b)
	}

	res, err := a.Capture(ctx, req)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if res.Context == nil {
		log.Warn().Str("selection", opts.selection).Msg("selection not found on page; asking without page context")
	}
	if opts.contextOnly {
		if res.Context != nil {
			_, err = fmt.Fprintln(out, res.Context.FormattedContext)
		}
		return err
	}

	turn, err := a.Ask(ctx, opts.question)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, turn.Content)
	return err
}
