package dom

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Parse builds a snapshot from HTML. The parser is the same HTML5 tree
// builder browsers use, so implied elements (<html>, <head>, <body>) are
// always present. Text is normalized to NFC so selections typed or copied
// in composed form still match the page.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	b := NewBuilder(pageURL)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		convert(b, b.Root(), c)
	}
	return b.Build(), nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string, pageURL string) (*Document, error) {
	return Parse(bytes.NewReader([]byte(s)), pageURL)
}

func convert(b *Builder, parent NodeID, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		attrs := make([]Attribute, 0, len(n.Attr))
		for _, a := range n.Attr {
			attrs = append(attrs, Attribute{Key: a.Key, Val: a.Val})
		}
		id := b.Element(parent, n.Data, attrs...)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			convert(b, id, c)
		}
	case html.TextNode:
		if n.Data == "" {
			return
		}
		b.Text(parent, norm.NFC.String(n.Data))
	case html.CommentNode:
		b.Comment(parent, n.Data)
	case html.DoctypeNode:
		b.Doctype(parent, n.Data)
	}
}
