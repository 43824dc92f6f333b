package dom

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Position is a boundary point: a node plus a byte offset into its data
// (text nodes) or child index (elements).
type Position struct {
	Node   NodeID
	Offset int
}

// Range spans two boundary points in document order.
type Range struct {
	Start Position
	End   Position
}

// CommonAncestor returns the deepest node containing both boundary nodes.
// It may be a text node when the range lies inside a single text node.
func (r Range) CommonAncestor(d *Document) NodeID {
	if !d.Valid(r.Start.Node) || !d.Valid(r.End.Node) {
		return None
	}
	seen := make(map[NodeID]struct{})
	for n := r.Start.Node; n != None; n = d.Parent(n) {
		seen[n] = struct{}{}
	}
	for n := r.End.Node; n != None; n = d.Parent(n) {
		if _, ok := seen[n]; ok {
			return n
		}
	}
	return None
}

// Selection is the set of ranges the user has selected. The zero value has
// no ranges.
type Selection struct {
	ranges []Range
}

// NewSelection returns a selection over the given ranges.
func NewSelection(ranges ...Range) Selection {
	return Selection{ranges: append([]Range(nil), ranges...)}
}

// SelectNode selects the whole of one node.
func SelectNode(d *Document, id NodeID) Selection {
	if !d.Valid(id) {
		return Selection{}
	}
	end := len(d.Children(id))
	if k := d.Kind(id); k == TextNode || k == CommentNode {
		end = len(d.nodes[id].Data)
	}
	return NewSelection(Range{Start: Position{Node: id}, End: Position{Node: id, Offset: end}})
}

func (s Selection) RangeCount() int { return len(s.ranges) }

// RangeAt returns the i-th range. It panics when i is out of bounds.
func (s Selection) RangeAt(i int) Range { return s.ranges[i] }

// textSpan records where a text node's data starts in the concatenated
// visible text.
type textSpan struct {
	node  NodeID
	start int
	end   int
}

// skipText lists elements whose text a user cannot select.
var skipText = map[string]bool{
	"SCRIPT":   true,
	"STYLE":    true,
	"NOSCRIPT": true,
	"TEMPLATE": true,
	"HEAD":     true,
}

// FindText locates the first occurrence of text in the document body and
// returns the range covering it. Runs of whitespace in both the page and
// the needle compare equal, since selection strings reported by browsers
// collapse the source whitespace.
func FindText(d *Document, text string) (Range, bool) {
	needle := collapse(text)
	if needle == "" || d == nil {
		return Range{}, false
	}
	scope := d.Body()
	if scope == None {
		scope = d.Root()
	}

	var all strings.Builder
	var spans []textSpan
	d.walk(scope, func(n NodeID) bool {
		node := d.nodes[n]
		if node.Kind == ElementNode && skipText[node.Tag] {
			return false
		}
		if node.Kind == TextNode && node.Data != "" {
			start := all.Len()
			all.WriteString(node.Data)
			spans = append(spans, textSpan{node: n, start: start, end: all.Len()})
		}
		return true
	})

	haystack, index := collapseIndexed(all.String())
	at := strings.Index(haystack, needle)
	if at < 0 {
		return Range{}, false
	}
	first := index[at]
	last := index[at+len(needle)-1] + 1

	start, ok := spanAt(spans, first)
	if !ok {
		return Range{}, false
	}
	end, ok := spanAt(spans, last-1)
	if !ok {
		return Range{}, false
	}
	return Range{
		Start: Position{Node: start.node, Offset: first - start.start},
		End:   Position{Node: end.node, Offset: last - end.start},
	}, true
}

func spanAt(spans []textSpan, offset int) (textSpan, bool) {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].end > offset })
	if i == len(spans) || spans[i].start > offset {
		return textSpan{}, false
	}
	return spans[i], true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseIndexed collapses whitespace runs to one space and returns, for
// every byte of the result, the byte offset it came from in s. Leading and
// trailing whitespace are kept as a single space so offsets stay aligned.
func collapseIndexed(s string) (string, []int) {
	out := make([]byte, 0, len(s))
	index := make([]int, 0, len(s))
	inSpace := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			if !inSpace {
				out = append(out, ' ')
				index = append(index, i)
				inSpace = true
			}
			i += size
			continue
		}
		inSpace = false
		for k := 0; k < size; k++ {
			out = append(out, s[i+k])
			index = append(index, i+k)
		}
		i += size
	}
	return string(out), index
}
