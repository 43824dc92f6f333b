package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// apiKeyFromEnv prefers the OpenRouter-specific variable.
func apiKeyFromEnv() string {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("LLM_API_KEY")
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) (val bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	applyEnv(cfg, false)
}

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after the config file so env beats the file while flags,
// reapplied by the caller, stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	applyEnv(cfg, true)
}

func applyEnv(cfg *Config, force bool) {
	str := func(dst *string, v string) {
		if v != "" && (force || *dst == "") {
			*dst = v
		}
	}
	num := func(dst *int, key string) {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n >= 0 && (force || *dst == 0) {
			*dst = n
		}
	}
	dur := func(dst *time.Duration, key string) {
		if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil && (force || *dst == 0) {
			*dst = d
		}
	}
	flag := func(dst *bool, key string) {
		v, ok := parseBool(os.Getenv(key))
		if !ok {
			return
		}
		if force || (!*dst && v) {
			*dst = v
		}
	}

	str(&cfg.LLMBaseURL, os.Getenv("LLM_BASE_URL"))
	str(&cfg.LLMModel, os.Getenv("LLM_MODEL"))
	str(&cfg.LLMAPIKey, apiKeyFromEnv())
	str(&cfg.AppName, os.Getenv("APP_NAME"))
	str(&cfg.AppHomepage, os.Getenv("APP_HOMEPAGE"))
	str(&cfg.StoreDriver, os.Getenv("STORE_DRIVER"))
	str(&cfg.StorePath, os.Getenv("STORE_PATH"))
	str(&cfg.CacheDir, os.Getenv("CACHE_DIR"))
	str(&cfg.RenderBrowser, os.Getenv("RENDER_BROWSER"))
	str(&cfg.UserAgent, os.Getenv("USER_AGENT"))
	str(&cfg.ServerAddr, os.Getenv("SERVER_ADDR"))

	num(&cfg.MaxArticleChars, "MAX_ARTICLE_CHARS")
	num(&cfg.ReservedOutputTokens, "RESERVED_OUTPUT_TOKENS")
	num(&cfg.CompareConcurrency, "COMPARE_CONCURRENCY")
	num(&cfg.CacheMaxEntries, "CACHE_MAX_ENTRIES")
	dur(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	dur(&cfg.FetchTimeout, "FETCH_TIMEOUT")

	if models := parseList(os.Getenv("COMPARE_MODELS")); len(models) > 0 && (force || len(cfg.CompareModels) == 0) {
		cfg.CompareModels = models
	}

	flag(&cfg.Verbose, "VERBOSE")
	flag(&cfg.CacheClear, "CACHE_CLEAR")
	flag(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	flag(&cfg.StoreStrictPerms, "STORE_STRICT_PERMS")
	flag(&cfg.NoAnswerCache, "NO_ANSWER_CACHE")
	flag(&cfg.InsecureTLS, "INSECURE_TLS")
}
