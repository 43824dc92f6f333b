package budget

import (
    "strings"
    "testing"
    "unicode/utf8"

    "github.com/hyperifyio/askpage/internal/extract"
)

func TestEstimateTokensFromChars(t *testing.T) {
    cases := []struct{
        in int
        want int
    }{
        {0, 0},
        {1, 1},           // ceil(1/4)=1
        {3, 1},
        {4, 1},
        {5, 2},
        {400, 100},
    }
    for _, c := range cases {
        got := EstimateTokensFromChars(c.in)
        if got != c.want {
            t.Fatalf("EstimateTokensFromChars(%d) = %d, want %d", c.in, got, c.want)
        }
    }
}

func TestModelContextTokens(t *testing.T) {
    if ModelContextTokens("") != 8192 {
        t.Fatal("empty model should default to 8192")
    }
    if ModelContextTokens("openai/gpt-3.5-turbo") != 16_384 {
        t.Fatal("router prefix should be ignored for known models")
    }
    if ModelContextTokens("GPT-4O") < 100_000 {
        t.Fatal("case-insensitive match for gpt-4o should be ~128k")
    }
    if ModelContextTokens("vendor/mystery-200k") != 200_000 {
        t.Fatal("numeric suffix heuristic 200k should map to 200k tokens")
    }
}

func TestRemainingContext_NeverNegative(t *testing.T) {
    if got := RemainingContext("llama-3", 10_000, 10_000); got != 0 {
        t.Fatalf("expected 0, got %d", got)
    }
}

func TestBoundArticle_TruncatesToCap(t *testing.T) {
    pc := &extract.PageContext{
        SelectionContext: extract.SelectionContext{SelectedText: "x"},
        ArticleContent:   &extract.ArticleContent{Content: strings.Repeat("a", 5000)},
    }
    orig := pc.ArticleContent
    if !BoundArticle(pc, Options{Model: "gpt-4o", MaxArticleChars: 1000}) {
        t.Fatal("expected truncation")
    }
    if len(pc.ArticleContent.Content) != 1000 {
        t.Fatalf("len = %d, want 1000", len(pc.ArticleContent.Content))
    }
    if len(orig.Content) != 5000 {
        t.Fatal("input article record must not be modified")
    }
}

func TestBoundArticle_FitsModelWindow(t *testing.T) {
    pc := &extract.PageContext{
        ArticleContent: &extract.ArticleContent{Content: strings.Repeat("word ", 20_000)},
    }
    BoundArticle(pc, Options{Model: "llama-3", ReservedOutputTokens: 1000})
    tokens := EstimateTokens(pc.ArticleContent.Content)
    if tokens+1000+HeadroomTokens("llama-3") > ModelContextTokens("llama-3") {
        t.Fatalf("article still too large: %d tokens", tokens)
    }
}

func TestBoundArticle_NoopWhenSmall(t *testing.T) {
    pc := &extract.PageContext{ArticleContent: &extract.ArticleContent{Content: "short"}}
    if BoundArticle(pc, Options{Model: "gpt-4o"}) {
        t.Fatal("short content should not be truncated")
    }
    if BoundArticle(&extract.PageContext{}, Options{}) {
        t.Fatal("missing article should be a no-op")
    }
}

func TestTruncateUTF8_KeepsRunesWhole(t *testing.T) {
    s := "héllo wörld"
    for n := 0; n <= len(s); n++ {
        got := TruncateUTF8(s, n)
        if !utf8.ValidString(got) {
            t.Fatalf("invalid utf8 at n=%d: %q", n, got)
        }
        if len(got) > n {
            t.Fatalf("len %d > %d", len(got), n)
        }
    }
}
