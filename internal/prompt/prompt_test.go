package prompt

import (
	"strings"
	"testing"

	"github.com/hyperifyio/askpage/internal/extract"
)

func TestBuild_NilContextUsesPlaceholders(t *testing.T) {
	got := Build("why?", nil)
	if !strings.Contains(got, "Context from the webpage:\nNo additional context available\n") {
		t.Fatalf("missing context placeholder:\n%s", got)
	}
	if !strings.Contains(got, `User's selection: "No text selected"`) {
		t.Fatalf("missing selection placeholder:\n%s", got)
	}
	if !strings.Contains(got, "User's question: why?") {
		t.Fatalf("missing question:\n%s", got)
	}
}

func TestBuild_PrefersFormattedContext(t *testing.T) {
	pc := &extract.PageContext{
		SelectionContext: extract.SelectionContext{SelectedText: "sel", SurroundingParagraph: "para"},
		FormattedContext: "formatted block",
	}
	got := Build("q", pc)
	if !strings.Contains(got, "formatted block") || strings.Contains(got, "\npara\n") {
		t.Fatalf("expected formatted context only:\n%s", got)
	}
	if !strings.Contains(got, `User's selection: "sel"`) {
		t.Fatalf("selection missing:\n%s", got)
	}
}

func TestBuild_FallsBackToParagraph(t *testing.T) {
	pc := &extract.PageContext{SelectionContext: extract.SelectionContext{SurroundingParagraph: "raw paragraph"}}
	got := Build("q", pc)
	if !strings.Contains(got, "Context from the webpage:\nraw paragraph\n") {
		t.Fatalf("expected paragraph fallback:\n%s", got)
	}
	if !strings.Contains(got, `User's selection: ""`) {
		t.Fatalf("empty selection expected when context exists:\n%s", got)
	}
}

func TestBuild_AppendsArticleOnlyWhenMissing(t *testing.T) {
	pc := &extract.PageContext{
		FormattedContext: "Selected text:\n\"a\"\n\nRelevant article content:\nthe article",
		ArticleContent:   &extract.ArticleContent{Content: "the article"},
	}
	if got := Build("q", pc); strings.Contains(got, "Full article content:") {
		t.Fatalf("article already in context must not be appended:\n%s", got)
	}
	pc.FormattedContext = "Selected text:\n\"a\""
	if got := Build("q", pc); !strings.Contains(got, "\n\nFull article content: the article") {
		t.Fatalf("expected article appended:\n%s", got)
	}
}

func TestFill_SinglePassSubstitution(t *testing.T) {
	got := Fill("{context}|{selection}|{question}", "ctx mentions {question}", "{context}", "Q")
	if got != "ctx mentions {question}|{context}|Q" {
		t.Fatalf("substituted values must not be re-expanded, got %q", got)
	}
}
