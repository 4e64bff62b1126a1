// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xmltree converts arbitrary XML into a schema-agnostic tree.
//
// Every element becomes a Node holding three kinds of fields: attributes
// (keyed with AttrPrefix so an attribute "href" never collides with a child
// element named "href"), child elements keyed by their namespace-stripped
// local name, and the element's own non-whitespace text under TextKey.
// A child key holds a single node until the same tag repeats among
// siblings, at which point it is promoted to an ordered sequence.
package xmltree

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	// AttrPrefix marks attribute keys in the generic representation.
	AttrPrefix = "@"

	// TextKey is the reserved key for an element's direct text content.
	TextKey = "#text"

	maxDepth = 512
)

// ErrEmpty is wrapped by MarkupError when the input holds no document element.
var ErrEmpty = errors.New("no document element")

// MarkupError reports input that is not well-formed XML.
type MarkupError struct {
	Err error
}

func (e *MarkupError) Error() string {
	return fmt.Sprintf("malformed markup: %v", e.Err)
}

func (e *MarkupError) Unwrap() error { return e.Err }

// Parse converts markup into the tree rooted at its document element.
func Parse(markup string) (*Node, error) {
	return ParseBytes([]byte(markup))
}

// ParseBytes is Parse for a byte slice, typically an HTTP response body.
// Declared non-UTF-8 encodings are decoded through x/net charset tables.
func ParseBytes(data []byte) (*Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &MarkupError{Err: ErrEmpty}
	}

	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel

	var root *Node
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MarkupError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, &MarkupError{Err: fmt.Errorf("element <%s> after document element", t.Name.Local)}
			}
			root, err = convert(d, t, 1)
			if err != nil {
				return nil, &MarkupError{Err: err}
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, &MarkupError{Err: errors.New("text outside document element")}
			}
		}
	}

	if root == nil {
		return nil, &MarkupError{Err: ErrEmpty}
	}
	return root, nil
}

// convert consumes tokens up to and including the end of start and
// returns the converted element.
func convert(d *xml.Decoder, start xml.StartElement, depth int) (*Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("element nesting deeper than %d", maxDepth)
	}

	n := newNode(start.Name.Local)
	for _, a := range start.Attr {
		if isNamespaceDecl(a.Name) {
			continue
		}
		// Same local name from another namespace: the first one wins.
		key := AttrPrefix + a.Name.Local
		if _, dup := n.attrs[key]; dup {
			continue
		}
		n.attrs[key] = a.Value
	}

	// Character data split by a child element is kept as separate runs.
	var (
		text strings.Builder
		runs []string
	)
	flush := func() {
		if s := strings.TrimSpace(text.String()); s != "" {
			runs = append(runs, s)
		}
		text.Reset()
	}
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			flush()
			child, err := convert(d, t, depth+1)
			if err != nil {
				return nil, err
			}
			n.add(t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			flush()
			if len(runs) > 0 {
				n.text = strings.Join(runs, " ")
				n.hasText = true
			}
			return n, nil
		}
	}
}

// isNamespaceDecl reports whether an attribute is an xmlns declaration
// rather than data.
func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}

// Node is one converted element. A nil *Node behaves like an empty node,
// so callers can treat a missing key and an empty element the same way.
type Node struct {
	name     string
	attrs    map[string]string
	text     string
	hasText  bool
	children map[string]*Value
	order    []string
}

// NewNode returns an empty node for the named element.
func NewNode(name string) *Node {
	return newNode(name)
}

func newNode(name string) *Node {
	return &Node{
		name:     name,
		attrs:    make(map[string]string),
		children: make(map[string]*Value),
	}
}

// Name returns the element's local name.
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.name
}

// SetAttr records an attribute. name is given without AttrPrefix.
func (n *Node) SetAttr(name, value string) *Node {
	n.attrs[AttrPrefix+strings.TrimPrefix(name, AttrPrefix)] = value
	return n
}

// SetText records the element's direct text, trimmed. Whitespace-only
// text clears it.
func (n *Node) SetText(text string) *Node {
	n.text = strings.TrimSpace(text)
	n.hasText = n.text != ""
	return n
}

// Append adds child under key, promoting an existing single value to a
// sequence.
func (n *Node) Append(key string, child *Node) *Node {
	n.add(key, child)
	return n
}

// SetSeq stores children under key as a sequence, even when there is only one.
func (n *Node) SetSeq(key string, children ...*Node) *Node {
	if _, ok := n.children[key]; !ok {
		n.order = append(n.order, key)
	}
	n.children[key] = &Value{nodes: append([]*Node(nil), children...), seq: true}
	return n
}

func (n *Node) add(key string, child *Node) {
	v, ok := n.children[key]
	if !ok {
		n.children[key] = &Value{nodes: []*Node{child}}
		n.order = append(n.order, key)
		return
	}
	v.nodes = append(v.nodes, child)
	v.seq = true
}

// Attr returns the attribute value. name may be given with or without AttrPrefix.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	v, ok := n.attrs[AttrPrefix+strings.TrimPrefix(name, AttrPrefix)]
	return v, ok
}

// Attrs returns a copy of the attributes keyed with AttrPrefix.
func (n *Node) Attrs() map[string]string {
	out := make(map[string]string)
	if n == nil {
		return out
	}
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// Text returns the element's direct text, or "" when it has none.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text
}

// HasText reports whether the element carried non-whitespace direct text.
func (n *Node) HasText() bool {
	return n != nil && n.hasText
}

// Get returns the value stored under a child key.
func (n *Node) Get(key string) (*Value, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.children[key]
	return v, ok
}

// Child returns the first node under key, or nil.
func (n *Node) Child(key string) *Node {
	v, ok := n.Get(key)
	if !ok {
		return nil
	}
	return v.First()
}

// Children returns every node under key in document order. A single value
// and a one-element sequence both yield a one-element slice.
func (n *Node) Children(key string) []*Node {
	v, ok := n.Get(key)
	if !ok {
		return nil
	}
	return v.Nodes()
}

// ChildText returns the direct text of the first node under key.
func (n *Node) ChildText(key string) string {
	return n.Child(key).Text()
}

// Keys lists attribute keys (sorted), child keys (first-seen order) and
// TextKey when the element has text.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, 0, len(n.attrs)+len(n.order)+1)
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	keys = append(keys, n.order...)
	if n.hasText {
		keys = append(keys, TextKey)
	}
	return keys
}

// IsEmpty reports whether the element has no attributes, children or text.
func (n *Node) IsEmpty() bool {
	return n == nil || (len(n.attrs) == 0 && len(n.children) == 0 && !n.hasText)
}

// Map returns the generic representation: attribute and text keys map to
// strings, child keys to a map[string]any or, for sequences, a []any.
func (n *Node) Map() map[string]any {
	out := make(map[string]any)
	if n == nil {
		return out
	}
	for k, v := range n.attrs {
		out[k] = v
	}
	for _, k := range n.order {
		v := n.children[k]
		if !v.seq {
			out[k] = v.nodes[0].Map()
			continue
		}
		seq := make([]any, len(v.nodes))
		for i, c := range v.nodes {
			seq[i] = c.Map()
		}
		out[k] = seq
	}
	if n.hasText {
		out[TextKey] = n.text
	}
	return out
}

// MarshalJSON encodes the generic representation.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Map())
}

// Value is what a child key maps to: one node, or a sequence once the tag
// repeats among siblings.
type Value struct {
	nodes []*Node
	seq   bool
}

// IsSeq reports whether the value is a sequence.
func (v *Value) IsSeq() bool {
	return v != nil && v.seq
}

// Len returns the number of nodes held.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	return len(v.nodes)
}

// First returns the first node, or nil.
func (v *Value) First() *Node {
	if v.Len() == 0 {
		return nil
	}
	return v.nodes[0]
}

// Nodes returns the held nodes in document order, coercing a single value
// into a one-element slice.
func (v *Value) Nodes() []*Node {
	if v == nil {
		return nil
	}
	return append([]*Node(nil), v.nodes...)
}
