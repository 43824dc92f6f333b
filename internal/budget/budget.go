package budget

import (
    "math"
    "strings"
    "unicode/utf8"

    "github.com/hyperifyio/askpage/internal/extract"
)

// EstimateTokensFromChars converts a character count into an estimated token
// count using a conservative heuristic (~4 chars per token in English). The
// result is always at least 1 when chars > 0.
func EstimateTokensFromChars(charCount int) int {
    if charCount <= 0 {
        return 0
    }
    return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of a string.
func EstimateTokens(s string) int {
    return EstimateTokensFromChars(len(s))
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Router-style names ("openai/gpt-4o") are matched on the part
// after the provider prefix too. Unknown models fall back to a sensible
// default.
func ModelContextTokens(modelName string) int {
    name := strings.ToLower(strings.TrimSpace(modelName))
    if name == "" {
        return 8192
    }
    if v, ok := knownModelMax[name]; ok {
        return v
    }
    if i := strings.LastIndexByte(name, '/'); i >= 0 {
        if v, ok := knownModelMax[name[i+1:]]; ok {
            return v
        }
    }
    switch {
    case strings.HasSuffix(name, "1m"):
        return 1_000_000
    case strings.HasSuffix(name, "200k"):
        return 200_000
    case strings.HasSuffix(name, "128k"):
        return 128_000
    case strings.HasSuffix(name, "32k"):
        return 32_768
    case strings.Contains(name, "-mini"):
        return 128_000
    }
    return 8192
}

// HeadroomTokens returns a safety margin for tokenizer and framing overheads:
// the larger of 5% of the model context or 512 tokens.
func HeadroomTokens(modelName string) int {
    dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
    if dyn < 512 {
        return 512
    }
    return dyn
}

// RemainingContext computes the remaining input token budget after the
// output reservation, headroom and the prompt. Never negative.
func RemainingContext(modelName string, reservedForOutput int, promptTokens int) int {
    if reservedForOutput < 0 {
        reservedForOutput = 0
    }
    remaining := ModelContextTokens(modelName) - HeadroomTokens(modelName) - reservedForOutput - promptTokens
    if remaining < 0 {
        return 0
    }
    return remaining
}

// Options bound the article section of a page context.
type Options struct {
    Model string
    // ReservedOutputTokens is kept free for the answer. Zero means 1024.
    ReservedOutputTokens int
    // MaxArticleChars caps the article regardless of model size. Zero
    // disables the cap.
    MaxArticleChars int
    // FrameChars is the size of the prompt text wrapped around the context
    // (template, system message, question).
    FrameChars int
}

// BoundArticle truncates pc.ArticleContent.Content so the prompt built from
// pc fits the model window. It reports whether anything was cut.
func BoundArticle(pc *extract.PageContext, opts Options) bool {
    if pc == nil || pc.ArticleContent == nil || pc.ArticleContent.Content == "" {
        return false
    }
    reserved := opts.ReservedOutputTokens
    if reserved <= 0 {
        reserved = 1024
    }
    // Everything except the article body: title, url, headings, selection,
    // paragraph, labels.
    fixed := opts.FrameChars + len(pc.PageTitle) + len(pc.URL) + len(pc.SelectedText) +
        len(pc.SurroundingParagraph) + len(strings.Join(pc.Headings, " > ")) + 128
    allowed := RemainingContext(opts.Model, reserved, EstimateTokensFromChars(fixed)) * 4
    if opts.MaxArticleChars > 0 && opts.MaxArticleChars < allowed {
        allowed = opts.MaxArticleChars
    }
    content := pc.ArticleContent.Content
    if len(content) <= allowed {
        return false
    }
    cut := TruncateUTF8(content, allowed)
    a := *pc.ArticleContent
    a.Content = cut
    pc.ArticleContent = &a
    return true
}

// TruncateUTF8 cuts s to at most n bytes without splitting a rune.
func TruncateUTF8(s string, n int) string {
    if n <= 0 {
        return ""
    }
    if len(s) <= n {
        return s
    }
    for n > 0 && !utf8.RuneStart(s[n]) {
        n--
    }
    return s[:n]
}

// knownModelMax contains rough context sizes for common model identifiers.
// These are best-effort and do not need to be exhaustive.
var knownModelMax = map[string]int{
    "gpt-4o":             128_000,
    "gpt-4o-mini":        128_000,
    "gpt-4-turbo":        128_000,
    "gpt-3.5-turbo":      16_384,

    "claude-3-5-sonnet":  200_000,
    "claude-3-opus":      200_000,
    "claude-3-haiku":     200_000,

    "gemini-pro-1.5":       1_000_000,
    "gemini-2.0-flash-001": 1_000_000,

    "llama-3":            8_192,
    "llama-3.1":          128_000,
}
