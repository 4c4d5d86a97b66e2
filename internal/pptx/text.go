package pptx

import (
	"fmt"
	"net/url"
	"strings"
)

const relSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"

// Shape is a p:sp carrying a text body.
type Shape struct {
	slide *Slide
	node  *Node
}

func (sh *Shape) Name() string {
	if c := sh.node.Path("p:nvSpPr", "p:cNvPr"); c != nil {
		v, _ := c.Attr("name")
		return v
	}
	return ""
}

func (sh *Shape) txBody() *Node { return sh.node.Child("p:txBody") }

func (sh *Shape) Paragraphs() []*Paragraph {
	out := []*Paragraph{}
	for _, p := range sh.txBody().ChildrenNamed("a:p") {
		out = append(out, &Paragraph{shape: sh, node: p})
	}
	return out
}

// Text returns the shape text with paragraphs and line breaks as "\n".
func (sh *Shape) Text() string {
	paras := sh.Paragraphs()
	lines := make([]string, len(paras))
	for i, p := range paras {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// ClearText leaves a single empty paragraph, keeping its paragraph properties.
func (sh *Shape) ClearText() {
	body := sh.txBody()
	paras := body.ChildrenNamed("a:p")
	if len(paras) == 0 {
		body.Append(newElement("a:p"))
		return
	}
	for _, p := range paras[1:] {
		body.Remove(p)
	}
	first := paras[0]
	kept := []*Node{}
	for _, c := range first.Children {
		if c.IsElement() && (c.Name == "a:pPr" || c.Name == "a:endParaRPr") {
			kept = append(kept, c)
		}
	}
	first.Children = kept
}

// Frame returns the shape position and size. A placeholder without its own transform
// inherits the one from its layout, then from the master.
func (sh *Shape) Frame() (Rect, bool) {
	if r, ok := xfrmRect(sh.node); ok {
		return r, true
	}
	ph := sh.node.Path("p:nvSpPr", "p:nvPr", "p:ph")
	if ph == nil {
		return Rect{}, false
	}
	layout, err := sh.slide.layoutPart()
	if err != nil || layout == "" {
		return Rect{}, false
	}
	pkg := sh.slide.deck.pkg
	if r, ok := placeholderRect(pkg, layout, ph); ok {
		return r, true
	}
	rels, err := pkg.rels(layout)
	if err != nil {
		return Rect{}, false
	}
	for _, rel := range rels {
		if rel.Type == relSlideMaster {
			return placeholderRect(pkg, resolveTarget(layout, rel.Target), ph)
		}
	}
	return Rect{}, false
}

func xfrmRect(sp *Node) (Rect, bool) {
	xfrm := sp.Path("p:spPr", "a:xfrm")
	if xfrm == nil {
		return Rect{}, false
	}
	off, ext := xfrm.Child("a:off"), xfrm.Child("a:ext")
	if off == nil || ext == nil {
		return Rect{}, false
	}
	return Rect{X: attrInt(off, "x"), Y: attrInt(off, "y"), CX: attrInt(ext, "cx"), CY: attrInt(ext, "cy")}, true
}

// placeholderRect finds the placeholder matching ph in part, by idx first and type second.
func placeholderRect(pkg *Package, part string, ph *Node) (Rect, bool) {
	doc, err := pkg.Doc(part)
	if err != nil {
		return Rect{}, false
	}
	tree := doc.Root.Path("p:cSld", "p:spTree")
	if tree == nil {
		return Rect{}, false
	}
	idx, hasIdx := ph.Attr("idx")
	typ, _ := ph.Attr("type")

	var byType *Node
	for _, sp := range tree.ChildrenNamed("p:sp") {
		cand := sp.Path("p:nvSpPr", "p:nvPr", "p:ph")
		if cand == nil {
			continue
		}
		candIdx, _ := cand.Attr("idx")
		candType, _ := cand.Attr("type")
		if hasIdx && candIdx == idx {
			if r, ok := xfrmRect(sp); ok {
				return r, true
			}
		}
		if byType == nil && typ != "" && candType == typ {
			byType = sp
		}
	}
	if byType != nil {
		return xfrmRect(byType)
	}
	return Rect{}, false
}

type Paragraph struct {
	shape *Shape
	node  *Node
}

// isRunLike matches the nodes SetText rewrites. Fields (a:fld) are not among them so slide
// numbers and dates stay live.
func isRunLike(n *Node) bool {
	return n.IsElement() && (n.Name == "a:r" || n.Name == "a:br")
}

// Text concatenates the paragraph's runs; a:br counts as "\n" and fields are skipped.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, c := range p.node.Children {
		if !isRunLike(c) {
			continue
		}
		if c.Name == "a:br" {
			b.WriteString("\n")
			continue
		}
		if t := c.Child("a:t"); t != nil {
			b.WriteString(t.InnerText())
		}
	}
	return b.String()
}

func (p *Paragraph) Runs() []*Run {
	out := []*Run{}
	for _, r := range p.node.ChildrenNamed("a:r") {
		out = append(out, &Run{slide: p.shape.slide, node: r})
	}
	return out
}

// SetText replaces every run of the paragraph with text, formatted like the first run.
// "\n" becomes a line break with the same formatting.
// Fields keep their place after the new runs.
func (p *Paragraph) SetText(text string) {
	var rPr *Node
	pos := -1
	kept := []*Node{}
	for _, c := range p.node.Children {
		if isRunLike(c) {
			if pos < 0 {
				pos = len(kept)
			}
			if rPr == nil && c.Name != "a:br" {
				rPr = c.Child("a:rPr")
			}
			continue
		}
		kept = append(kept, c)
	}
	if rPr == nil {
		if end := p.node.Child("a:endParaRPr"); end != nil {
			rPr = end.Clone()
			rPr.Name = "a:rPr"
		}
	}
	if pos < 0 {
		pos = len(kept)
		for i, c := range kept {
			if c.IsElement() && c.Name == "a:endParaRPr" {
				pos = i
				break
			}
		}
	}

	runs := []*Node{}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			br := newElement("a:br")
			if rPr != nil {
				br.Append(rPr.Clone())
			}
			runs = append(runs, br)
		}
		if line == "" {
			continue
		}
		r := newElement("a:r")
		if rPr != nil {
			r.Append(rPr.Clone())
		}
		t := newElement("a:t")
		t.SetInnerText(line)
		r.Append(t)
		runs = append(runs, r)
	}

	children := make([]*Node, 0, len(kept)+len(runs))
	children = append(children, kept[:pos]...)
	children = append(children, runs...)
	children = append(children, kept[pos:]...)
	p.node.Children = children
}

type Run struct {
	slide *Slide
	node  *Node
}

func (r *Run) Text() string {
	if t := r.node.Child("a:t"); t != nil {
		return t.InnerText()
	}
	return ""
}

func (r *Run) SetText(text string) {
	t := r.node.Child("a:t")
	if t == nil {
		t = newElement("a:t")
		r.node.Append(t)
	}
	t.SetInnerText(text)
}

func (r *Run) rPr(create bool) *Node {
	if rPr := r.node.Child("a:rPr"); rPr != nil || !create {
		return rPr
	}
	rPr := newElement("a:rPr", Attr{Name: "lang", Value: "en-US"})
	r.node.InsertAt(0, rPr)
	return rPr
}

// Hyperlink returns the click target of the run, or "".
func (r *Run) Hyperlink() string {
	rPr := r.rPr(false)
	if rPr == nil {
		return ""
	}
	link := rPr.Child("a:hlinkClick")
	if link == nil {
		return ""
	}
	rid, _ := link.Attr("r:id")
	rel, ok, err := r.slide.deck.pkg.relByID(r.slide.part, rid)
	if err != nil || !ok {
		return ""
	}
	return rel.Target
}

// SetHyperlink points the run at target. A blank target removes the link.
func (r *Run) SetHyperlink(target string) error {
	target = strings.TrimSpace(target)
	if target != "" {
		if _, err := url.Parse(target); err != nil {
			return fmt.Errorf("invalid hyperlink %q: %w", target, err)
		}
	}

	if rPr := r.rPr(false); rPr != nil {
		for _, old := range rPr.ChildrenNamed("a:hlinkClick") {
			rPr.Remove(old)
		}
	}
	if target == "" {
		return nil
	}
	if r.slide.detached {
		return fmt.Errorf("cannot link a run on a detached slide")
	}

	rid, err := r.slide.deck.pkg.addRel(r.slide.part, relHyperlink, target, true)
	if err != nil {
		return err
	}
	ensureNamespace(r.slide.doc.Root, "r", nsRelationships)
	link := newElement("a:hlinkClick", Attr{Name: "r:id", Value: rid})
	insertBefore(r.rPr(true), link, "a:hlinkMouseOver", "a:rtl", "a:extLst")
	return nil
}
