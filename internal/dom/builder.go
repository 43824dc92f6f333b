package dom

import (
	"fmt"
	"strings"
)

// Builder assembles a Document node by node. A Builder is single-use: after
// Build it refuses further additions so the returned snapshot stays frozen.
type Builder struct {
	doc   *Document
	built bool
}

// NewBuilder starts a document whose URL is pageURL.
func NewBuilder(pageURL string) *Builder {
	d := &Document{url: pageURL, body: None}
	d.nodes = append(d.nodes, Node{
		Kind:        DocumentNode,
		parent:      None,
		firstChild:  None,
		lastChild:   None,
		prevSibling: None,
		nextSibling: None,
	})
	return &Builder{doc: d}
}

// Root returns the document node.
func (b *Builder) Root() NodeID { return 0 }

// Element appends an element under parent. The tag is stored uppercase.
func (b *Builder) Element(parent NodeID, tag string, attrs ...Attribute) NodeID {
	var copied []Attribute
	if len(attrs) > 0 {
		copied = append(copied, attrs...)
	}
	return b.add(parent, Node{Kind: ElementNode, Tag: strings.ToUpper(tag), Attr: copied})
}

// Text appends a text node under parent.
func (b *Builder) Text(parent NodeID, data string) NodeID {
	return b.add(parent, Node{Kind: TextNode, Data: data})
}

// Comment appends a comment node under parent.
func (b *Builder) Comment(parent NodeID, data string) NodeID {
	return b.add(parent, Node{Kind: CommentNode, Data: data})
}

// Doctype appends a doctype node under parent.
func (b *Builder) Doctype(parent NodeID, name string) NodeID {
	return b.add(parent, Node{Kind: DoctypeNode, Data: name})
}

func (b *Builder) add(parent NodeID, n Node) NodeID {
	if b.built {
		panic("dom: Builder used after Build")
	}
	d := b.doc
	if !d.Valid(parent) {
		panic(fmt.Sprintf("dom: invalid parent %d", parent))
	}
	if k := d.nodes[parent].Kind; k != DocumentNode && k != ElementNode {
		panic(fmt.Sprintf("dom: %s node cannot have children", k))
	}
	id := NodeID(len(d.nodes))
	n.parent = parent
	n.firstChild = None
	n.lastChild = None
	n.nextSibling = None
	n.prevSibling = d.nodes[parent].lastChild
	if n.prevSibling != None {
		d.nodes[n.prevSibling].nextSibling = id
	} else {
		d.nodes[parent].firstChild = id
	}
	d.nodes[parent].lastChild = id
	d.nodes = append(d.nodes, n)
	return id
}

// Build freezes the document and returns it.
func (b *Builder) Build() *Document {
	if b.built {
		panic("dom: Build called twice")
	}
	b.built = true
	d := b.doc
	d.body = d.FindFirst(d.Root(), func(n NodeID) bool { return d.nodes[n].Tag == "BODY" })
	return d
}
