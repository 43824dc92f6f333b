package extract

// PathSegment describes one element on the way from the boundary down to
// the selection.
type PathSegment struct {
    Tag       string `json:"tag"`
    ClassName string `json:"className"`
    ID        string `json:"id"`
}

// SelectionContext is what the extractor derives for one selection.
type SelectionContext struct {
    SelectedText         string        `json:"selectedText"`
    SurroundingParagraph string        `json:"surroundingParagraph"`
    Headings             []string      `json:"headings"`
    Path                 []PathSegment `json:"path"`
}

// ArticleContent is the best-effort main content of the page.
type ArticleContent struct {
    Title   string `json:"title"`
    Content string `json:"content"`
    URL     string `json:"url"`
}

// PageContext merges the selection context with page-level information. It
// is rebuilt for every selection and never reused across selections.
type PageContext struct {
    SelectionContext
    URL              string          `json:"url,omitempty"`
    PageTitle        string          `json:"pageTitle,omitempty"`
    ArticleContent   *ArticleContent `json:"articleContent,omitempty"`
    FormattedContext string          `json:"formattedContext,omitempty"`
}

// Merge combines a selection context with the article fallback. Page URL
// and title come from the article record. The result has no formatted
// context yet; callers format after any budgeting.
func Merge(sc SelectionContext, article ArticleContent) *PageContext {
    a := article
    return &PageContext{
        SelectionContext: sc,
        URL:              article.URL,
        PageTitle:        article.Title,
        ArticleContent:   &a,
    }
}
