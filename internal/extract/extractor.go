package extract

import (
    "strings"

    "github.com/hyperifyio/askpage/internal/dom"
)

// ArticleExtractor picks the main content of a page. Implementations can
// swap content-detection tactics without changing callers.
type ArticleExtractor interface {
    // ExtractArticle must be deterministic and never fail; the worst case
    // is the whole page text.
    ExtractArticle(doc *dom.Document) ArticleContent
}

// NaiveArticleExtractor uses the first <article> element anywhere in the
// page, then the first role="article" element, falling back to <body>.
// Content is the element's full text content, unfiltered.
type NaiveArticleExtractor struct{}

func (NaiveArticleExtractor) ExtractArticle(doc *dom.Document) ArticleContent {
    out := ArticleContent{Title: doc.Title(), URL: doc.URL()}
    root := doc.FindFirst(doc.Root(), func(n dom.NodeID) bool { return doc.Tag(n) == "ARTICLE" })
    if root == dom.None {
        root = doc.FindFirst(doc.Root(), func(n dom.NodeID) bool {
            role, ok := doc.GetAttr(n, "role")
            return ok && strings.EqualFold(strings.TrimSpace(role), "article")
        })
    }
    if root == dom.None {
        root = doc.Body()
    }
    if root == dom.None {
        root = doc.Root()
    }
    out.Content = doc.TextContent(root)
    return out
}
