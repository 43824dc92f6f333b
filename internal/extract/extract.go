package extract

import (
    "errors"
    "strings"

    "github.com/hyperifyio/askpage/internal/dom"
)

// ErrInvalidAnchor is returned when a selection anchor has no element
// ancestor to resolve to.
var ErrInvalidAnchor = errors.New("invalid selection anchor")

// boundaryTag is the document-root boundary: upward walks for headings and
// paths stop when they reach it.
const boundaryTag = "BODY"

var blockTags = map[string]bool{
    "P": true, "DIV": true, "SECTION": true, "ARTICLE": true, "ASIDE": true,
    "HEADER": true, "FOOTER": true, "BLOCKQUOTE": true,
    "H1": true, "H2": true, "H3": true, "H4": true, "H5": true, "H6": true,
    "LI": true,
}

var headingTags = map[string]bool{
    "H1": true, "H2": true, "H3": true, "H4": true, "H5": true, "H6": true,
}

// Extractor derives selection context from a document snapshot. It holds no
// state; one value can serve any number of documents and goroutines.
type Extractor struct {
    // Articles picks the article fallback. Nil means NaiveArticleExtractor.
    Articles ArticleExtractor
}

// New returns an Extractor using the naive article fallback.
func New() *Extractor {
    return &Extractor{Articles: NaiveArticleExtractor{}}
}

// ResolveElement maps an anchor to the element the walks start from. Text
// (and other character-data) nodes resolve to their parent element.
func (e *Extractor) ResolveElement(doc *dom.Document, anchor dom.NodeID) (dom.NodeID, error) {
    if !doc.Valid(anchor) {
        return dom.None, ErrInvalidAnchor
    }
    if doc.IsElement(anchor) {
        return anchor, nil
    }
    for n := doc.Parent(anchor); n != dom.None; n = doc.Parent(n) {
        if doc.IsElement(n) {
            return n, nil
        }
    }
    return dom.None, ErrInvalidAnchor
}

// FindEnclosingBlock returns the nearest ancestor-or-self whose tag is in
// the block set. The first match wins regardless of its size.
func (e *Extractor) FindEnclosingBlock(doc *dom.Document, el dom.NodeID) (dom.NodeID, bool) {
    for cur := el; cur != dom.None; cur = doc.ParentElement(cur) {
        if blockTags[doc.Tag(cur)] {
            return cur, true
        }
    }
    return dom.None, false
}

// SurroundingParagraph is the trimmed text of the enclosing block, or "".
func (e *Extractor) SurroundingParagraph(doc *dom.Document, el dom.NodeID) string {
    block, ok := e.FindEnclosingBlock(doc, el)
    if !ok {
        return ""
    }
    return strings.TrimSpace(doc.TextContent(block))
}

// FindPreviousHeading looks back from el: at each level it scans preceding
// element siblings nearest-first for a heading, then moves to the parent.
// Headings nested inside earlier sibling subtrees are not visited.
func (e *Extractor) FindPreviousHeading(doc *dom.Document, el dom.NodeID) (dom.NodeID, bool) {
    for cur := el; cur != dom.None && doc.Tag(cur) != boundaryTag; cur = doc.ParentElement(cur) {
        for sib := doc.PreviousElementSibling(cur); sib != dom.None; sib = doc.PreviousElementSibling(sib) {
            if headingTags[doc.Tag(sib)] {
                return sib, true
            }
        }
    }
    return dom.None, false
}

// RelevantHeadings builds the heading breadcrumb, outermost first. Every
// ancestor level up to the boundary asks FindPreviousHeading; a heading
// found again from a higher level is not repeated, and headings with no
// text are dropped.
func (e *Extractor) RelevantHeadings(doc *dom.Document, el dom.NodeID) []string {
    headings := make([]string, 0, 4)
    seen := make(map[dom.NodeID]bool)
    for cur := el; cur != dom.None && doc.Tag(cur) != boundaryTag; cur = doc.ParentElement(cur) {
        h, ok := e.FindPreviousHeading(doc, cur)
        if !ok || seen[h] {
            continue
        }
        seen[h] = true
        text := strings.TrimSpace(doc.TextContent(h))
        if text == "" {
            continue
        }
        headings = append([]string{text}, headings...)
    }
    return headings
}

// ElementPath describes the ancestors of el, outermost first, stopping
// below the boundary element.
func (e *Extractor) ElementPath(doc *dom.Document, el dom.NodeID) []PathSegment {
    path := make([]PathSegment, 0, 8)
    for cur := el; cur != dom.None && doc.Tag(cur) != boundaryTag; cur = doc.ParentElement(cur) {
        seg := PathSegment{
            Tag:       strings.ToLower(doc.Tag(cur)),
            ClassName: doc.ClassName(cur),
            ID:        doc.ID(cur),
        }
        path = append([]PathSegment{seg}, path...)
    }
    return path
}

// SelectionContext computes the context of the first selected range. It
// returns nil without error when nothing is selected.
func (e *Extractor) SelectionContext(doc *dom.Document, sel dom.Selection, selectedText string) (*SelectionContext, error) {
    if sel.RangeCount() == 0 {
        return nil, nil
    }
    anchor := sel.RangeAt(0).CommonAncestor(doc)
    el, err := e.ResolveElement(doc, anchor)
    if err != nil {
        return nil, err
    }
    return &SelectionContext{
        SelectedText:         selectedText,
        SurroundingParagraph: e.SurroundingParagraph(doc, el),
        Headings:             e.RelevantHeadings(doc, el),
        Path:                 e.ElementPath(doc, el),
    }, nil
}

// ExtractArticle runs the configured article fallback.
func (e *Extractor) ExtractArticle(doc *dom.Document) ArticleContent {
    if e == nil || e.Articles == nil {
        return NaiveArticleExtractor{}.ExtractArticle(doc)
    }
    return e.Articles.ExtractArticle(doc)
}
