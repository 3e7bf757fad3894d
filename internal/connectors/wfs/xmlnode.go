package wfs

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// node is a prefix-preserving XML element tree, the shape WFS documents are
// navigated in. Names keep the document's own prefix ("ows:Operation").
type node struct {
	Name     string
	Attrs    map[string]string
	Children []*node
	Text     string
}

// Local returns the element name without its prefix.
func (n *node) Local() string {
	return localName(n.Name)
}

// Attr returns an attribute by unprefixed name.
func (n *node) Attr(name string) string {
	if n == nil {
		return ""
	}
	if v, ok := n.Attrs[name]; ok {
		return v
	}
	for k, v := range n.Attrs {
		if localName(k) == name && !strings.HasPrefix(k, "xmlns") {
			return v
		}
	}
	return ""
}

// HasAttr reports whether an unprefixed attribute is present.
func (n *node) HasAttr(name string) bool {
	if n == nil {
		return false
	}
	if _, ok := n.Attrs[name]; ok {
		return true
	}
	for k := range n.Attrs {
		if localName(k) == name && !strings.HasPrefix(k, "xmlns") {
			return true
		}
	}
	return false
}

// asSequence returns the children of parent matching name, in document order.
// Servers emit a single element or a repeated one for the same field; callers
// always get a slice. A prefixed name matches exactly, a bare name matches any
// prefix.
func asSequence(parent *node, name string) []*node {
	if parent == nil {
		return nil
	}
	var out []*node
	for _, c := range parent.Children {
		if nameMatches(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// first returns the first child matching name, or nil.
func first(parent *node, name string) *node {
	seq := asSequence(parent, name)
	if len(seq) == 0 {
		return nil
	}
	return seq[0]
}

// path walks nested single children: path(n, "a", "b") is first(first(n, "a"), "b").
func path(n *node, names ...string) *node {
	for _, name := range names {
		n = first(n, name)
		if n == nil {
			return nil
		}
	}
	return n
}

func nameMatches(qualified, want string) bool {
	if strings.Contains(want, ":") {
		return qualified == want
	}
	return localName(qualified) == want
}

func localName(qualified string) string {
	if i := strings.LastIndexByte(qualified, ':'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// newDecoder returns a non-strict decoder that understands the legacy
// encodings (ISO-8859-1, windows-1252) European WFS servers still emit.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false
	return dec
}

// parseDocument parses data into a document node whose only child is the root.
func parseDocument(data []byte) (*node, error) {
	dec := newDecoder(bytes.NewReader(data))
	doc := &node{}
	stack := []*node{doc}
	var text strings.Builder

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{Name: qualifiedName(t.Name), Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[qualifiedName(a.Name)] = a.Value
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, errors.New("parse xml: unbalanced end element")
			}
			cur := stack[len(stack)-1]
			if len(cur.Children) == 0 {
				cur.Text = strings.TrimSpace(text.String())
			}
			text.Reset()
			stack = stack[:len(stack)-1]
		}
	}

	if len(doc.Children) == 0 {
		return nil, errors.New("parse xml: no root element")
	}
	if len(stack) != 1 {
		return nil, errors.New("parse xml: unterminated element")
	}
	return doc, nil
}

// peekRoot decodes only as far as the root start element.
// Large feature pages are not walked just to read root attributes.
func peekRoot(data []byte) (*node, error) {
	dec := newDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse xml: no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		if t, ok := tok.(xml.StartElement); ok {
			n := &node{Name: qualifiedName(t.Name), Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[qualifiedName(a.Name)] = a.Value
			}
			return n, nil
		}
	}
}
