// Package dom holds an immutable snapshot of a rendered document.
//
// Nodes live in a single arena owned by the Document and refer to each other
// by NodeID. Nothing in this package mutates a Document after Build, so a
// snapshot can be shared across goroutines freely.
package dom

import "strings"

// NodeID indexes a node inside its Document. None marks a missing link.
type NodeID int32

// None is the zero link: no parent, no sibling, no match.
const None NodeID = -1

// Kind is the category of a node.
type Kind uint8

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case DoctypeNode:
		return "doctype"
	}
	return "unknown"
}

// Attribute is a single element attribute.
type Attribute struct {
	Key string
	Val string
}

// Attr is a shorthand constructor used with Builder.Element.
func Attr(key, val string) Attribute { return Attribute{Key: key, Val: val} }

// Node is one entry of the arena. Tag is the uppercase element name; Data
// carries the character data of text and comment nodes.
type Node struct {
	Kind Kind
	Tag  string
	Data string
	Attr []Attribute

	parent      NodeID
	firstChild  NodeID
	lastChild   NodeID
	prevSibling NodeID
	nextSibling NodeID
}

// Document is a read-only tree. The zero node is always the document node.
type Document struct {
	nodes []Node
	url   string
	body  NodeID
}

// Len returns the number of nodes in the snapshot.
func (d *Document) Len() int { return len(d.nodes) }

// Root returns the document node.
func (d *Document) Root() NodeID { return 0 }

// URL returns the location the snapshot was taken from.
func (d *Document) URL() string { return d.url }

// Valid reports whether id names a node of this document.
func (d *Document) Valid(id NodeID) bool {
	return d != nil && id >= 0 && int(id) < len(d.nodes)
}

// Node returns a copy of the node. Attr is shared and must not be modified.
func (d *Document) Node(id NodeID) (Node, bool) {
	if !d.Valid(id) {
		return Node{}, false
	}
	return d.nodes[id], true
}

func (d *Document) Kind(id NodeID) Kind {
	if !d.Valid(id) {
		return DocumentNode
	}
	return d.nodes[id].Kind
}

// Tag returns the uppercase tag name for elements and "" for anything else.
func (d *Document) Tag(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	return d.nodes[id].Tag
}

func (d *Document) IsElement(id NodeID) bool {
	return d.Valid(id) && d.nodes[id].Kind == ElementNode
}

func (d *Document) Parent(id NodeID) NodeID {
	if !d.Valid(id) {
		return None
	}
	return d.nodes[id].parent
}

// ParentElement returns the parent only if it is an element. The document
// node is not an element, so walks stop above <html>.
func (d *Document) ParentElement(id NodeID) NodeID {
	p := d.Parent(id)
	if !d.IsElement(p) {
		return None
	}
	return p
}

func (d *Document) FirstChild(id NodeID) NodeID {
	if !d.Valid(id) {
		return None
	}
	return d.nodes[id].firstChild
}

func (d *Document) LastChild(id NodeID) NodeID {
	if !d.Valid(id) {
		return None
	}
	return d.nodes[id].lastChild
}

func (d *Document) NextSibling(id NodeID) NodeID {
	if !d.Valid(id) {
		return None
	}
	return d.nodes[id].nextSibling
}

func (d *Document) PrevSibling(id NodeID) NodeID {
	if !d.Valid(id) {
		return None
	}
	return d.nodes[id].prevSibling
}

// PreviousElementSibling skips text and comment siblings.
func (d *Document) PreviousElementSibling(id NodeID) NodeID {
	for s := d.PrevSibling(id); s != None; s = d.PrevSibling(s) {
		if d.nodes[s].Kind == ElementNode {
			return s
		}
	}
	return None
}

// Children returns the direct children of id in order.
func (d *Document) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := d.FirstChild(id); c != None; c = d.NextSibling(c) {
		out = append(out, c)
	}
	return out
}

// GetAttr looks up an attribute by case-insensitive key.
func (d *Document) GetAttr(id NodeID, key string) (string, bool) {
	if !d.IsElement(id) {
		return "", false
	}
	for _, a := range d.nodes[id].Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// ClassName returns the raw class attribute.
func (d *Document) ClassName(id NodeID) string {
	v, _ := d.GetAttr(id, "class")
	return v
}

// ID returns the id attribute.
func (d *Document) ID(id NodeID) string {
	v, _ := d.GetAttr(id, "id")
	return v
}

// TextContent concatenates all descendant text nodes in document order. For
// text and comment nodes it returns their own data.
func (d *Document) TextContent(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	switch d.nodes[id].Kind {
	case TextNode, CommentNode:
		return d.nodes[id].Data
	case DoctypeNode:
		return ""
	}
	var b strings.Builder
	d.walk(id, func(n NodeID) bool {
		if d.nodes[n].Kind == TextNode {
			b.WriteString(d.nodes[n].Data)
		}
		return true
	})
	return b.String()
}

// Body returns the first BODY element, or None.
func (d *Document) Body() NodeID {
	if d == nil {
		return None
	}
	return d.body
}

// Title mirrors document.title: the first TITLE element's text with
// whitespace stripped and collapsed.
func (d *Document) Title() string {
	t := d.FindFirst(d.Root(), func(n NodeID) bool { return d.nodes[n].Tag == "TITLE" })
	if t == None {
		return ""
	}
	return strings.Join(strings.Fields(d.TextContent(t)), " ")
}

// FindFirst returns the first descendant-or-self of from, in document order,
// for which match reports true.
func (d *Document) FindFirst(from NodeID, match func(NodeID) bool) NodeID {
	found := None
	d.walk(from, func(n NodeID) bool {
		if found != None {
			return false
		}
		if d.nodes[n].Kind == ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Contains reports whether descendant is ancestor itself or lies below it.
func (d *Document) Contains(ancestor, descendant NodeID) bool {
	for n := descendant; n != None; n = d.Parent(n) {
		if n == ancestor {
			return true
		}
	}
	return false
}

// walk visits from and its descendants in pre-order. Returning false from
// visit skips the node's subtree.
func (d *Document) walk(from NodeID, visit func(NodeID) bool) {
	if !d.Valid(from) {
		return
	}
	stack := []NodeID{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			continue
		}
		for c := d.nodes[n].lastChild; c != None; c = d.nodes[c].prevSibling {
			stack = append(stack, c)
		}
	}
}
