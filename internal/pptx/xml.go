package pptx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type nodeKind int

const (
	elementNode nodeKind = iota
	textNode
	procInstNode
	commentNode
	directiveNode
)

// Attr keeps the attribute name exactly as written, prefix included ("r:id", "xmlns:a").
type Attr struct {
	Name  string
	Value string
}

// Node is one item of a parsed part. Element names keep their source prefix ("a:r") so
// the part serializes back with the namespace declarations it came with.
type Node struct {
	kind     nodeKind
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
}

func newElement(name string, attrs ...Attr) *Node {
	return &Node{kind: elementNode, Name: name, Attrs: attrs}
}

func newText(s string) *Node {
	return &Node{kind: textNode, Text: s}
}

func (n *Node) IsElement() bool { return n.kind == elementNode }

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

func (n *Node) RemoveAttr(name string) bool {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Child returns the first child element called name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.kind == elementNode && c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) ChildrenNamed(name string) []*Node {
	out := []*Node{}
	for _, c := range n.Children {
		if c.kind == elementNode && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Path walks a chain of child element names.
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		if cur == nil {
			return nil
		}
		cur = cur.Child(name)
	}
	return cur
}

// Descendants collects every element called name below n, in document order.
func (n *Node) Descendants(name string) []*Node {
	out := []*Node{}
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if c.kind != elementNode {
				continue
			}
			if c.Name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

func (n *Node) InsertAt(i int, child *Node) {
	if i < 0 || i >= len(n.Children) {
		n.Children = append(n.Children, child)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) Remove(child *Node) bool {
	i := n.IndexOf(child)
	if i < 0 {
		return false
	}
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	return true
}

// InnerText concatenates every text node below n.
func (n *Node) InnerText() string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if c.kind == textNode {
				b.WriteString(c.Text)
			} else if c.kind == elementNode {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// SetInnerText replaces every child with a single text node.
func (n *Node) SetInnerText(s string) {
	n.Children = []*Node{newText(s)}
}

func (n *Node) Clone() *Node {
	c := &Node{kind: n.kind, Name: n.Name, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Document is a parsed XML part: prolog items followed by the root element.
type Document struct {
	Prolog []*Node
	Root   *Node
}

func (d *Document) Clone() *Document {
	c := &Document{Root: d.Root.Clone()}
	for _, p := range d.Prolog {
		c.Prolog = append(c.Prolog, p.Clone())
	}
	return c
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func parseDocument(blob []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(blob))
	doc := &Document{}
	var stack []*Node

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		var node *Node
		switch t := tok.(type) {
		case xml.StartElement:
			el := newElement(qualified(t.Name))
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, errors.New("multiple root elements")
				}
				doc.Root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			continue
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected </%s>", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
			continue
		case xml.CharData:
			if len(stack) == 0 {
				// whitespace between prolog and root
				continue
			}
			node = newText(string(t))
		case xml.ProcInst:
			node = &Node{kind: procInstNode, Name: t.Target, Text: string(t.Inst)}
		case xml.Comment:
			node = &Node{kind: commentNode, Text: string(t)}
		case xml.Directive:
			node = &Node{kind: directiveNode, Text: string(t)}
		}

		if node == nil {
			continue
		}
		if len(stack) == 0 {
			if doc.Root == nil {
				doc.Prolog = append(doc.Prolog, node)
			}
			continue
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
	}

	if doc.Root == nil {
		return nil, errors.New("document has no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed <%s>", stack[len(stack)-1].Name)
	}
	return doc, nil
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;",
	)
)

func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	for _, p := range d.Prolog {
		writeNode(&buf, p)
		if p.kind == procInstNode {
			buf.WriteString("\r\n")
		}
	}
	writeNode(&buf, d.Root)
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	switch n.kind {
	case textNode:
		textEscaper.WriteString(buf, n.Text)
	case procInstNode:
		buf.WriteString("<?" + n.Name)
		if n.Text != "" {
			buf.WriteString(" " + n.Text)
		}
		buf.WriteString("?>")
	case commentNode:
		buf.WriteString("<!--" + n.Text + "-->")
	case directiveNode:
		buf.WriteString("<!" + n.Text + ">")
	case elementNode:
		buf.WriteString("<" + n.Name)
		for _, a := range n.Attrs {
			buf.WriteString(" " + a.Name + `="`)
			attrEscaper.WriteString(buf, a.Value)
			buf.WriteString(`"`)
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteString(">")
		for _, c := range n.Children {
			writeNode(buf, c)
		}
		buf.WriteString("</" + n.Name + ">")
	}
}
