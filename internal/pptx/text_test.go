package pptx

import (
	"strings"
	"testing"

	"catalogdeck/internal/pptx/pptxtest"
)

func firstShape(t *testing.T, slide pptxtest.Slide) (*Deck, *Shape) {
	t.Helper()
	d := openFixture(t, slide)
	shapes := d.Slides()[0].Shapes()
	if len(shapes) == 0 {
		t.Fatal("no shapes")
	}
	return d, shapes[0]
}

func TestParagraphTextJoinsSplitRuns(t *testing.T) {
	_, sh := firstShape(t, pptxtest.Slide{Shapes: []pptxtest.Shape{{
		Name:       "Code",
		Paragraphs: [][]string{{"{{Pro", "duct code", "}} tail"}, {"second"}},
		CX:         100, CY: 100,
	}}})

	p := sh.Paragraphs()[0]
	if got := p.Text(); got != "{{Product code}} tail" {
		t.Fatalf("text=%q", got)
	}
	if got := sh.Text(); got != "{{Product code}} tail\nsecond" {
		t.Fatalf("shape text=%q", got)
	}
}

func TestParagraphSetTextCollapsesRuns(t *testing.T) {
	_, sh := firstShape(t, pptxtest.Slide{Shapes: []pptxtest.Shape{{
		Paragraphs: [][]string{{"a", "b", "c"}},
		CX:         100, CY: 100,
	}}})
	p := sh.Paragraphs()[0]
	p.SetText("Height:\n\n120 cm")

	if got := p.Text(); got != "Height:\n\n120 cm" {
		t.Fatalf("text=%q", got)
	}
	runs := p.Runs()
	if len(runs) != 2 {
		t.Fatalf("runs=%d", len(runs))
	}
	for _, r := range runs {
		if sz, _ := r.node.Child("a:rPr").Attr("sz"); sz != "1800" {
			t.Fatalf("run lost first run formatting: sz=%s", sz)
		}
	}
	if brs := p.node.ChildrenNamed("a:br"); len(brs) != 2 || brs[0].Child("a:rPr") == nil {
		t.Fatalf("line breaks=%d", len(brs))
	}
	last := p.node.Children[len(p.node.Children)-1]
	if last.Name != "a:endParaRPr" {
		t.Fatalf("endParaRPr moved, last child %s", last.Name)
	}
}

func TestParagraphSetTextOnEmptyParagraph(t *testing.T) {
	_, sh := firstShape(t, pptxtest.Slide{Shapes: []pptxtest.Shape{{Paragraphs: [][]string{{}}, CX: 1, CY: 1}}})
	p := sh.Paragraphs()[0]
	p.SetText("new")
	if got := p.Text(); got != "new" {
		t.Fatalf("text=%q", got)
	}
	if p.node.Children[0].Name != "a:r" {
		t.Fatalf("run should precede endParaRPr, got %s", p.node.Children[0].Name)
	}
}

func TestParagraphSetTextKeepsFields(t *testing.T) {
	_, sh := firstShape(t, pptxtest.Slide{Shapes: []pptxtest.Shape{{
		Paragraphs: [][]string{{"{{Product code}}", " page "}},
		CX:         100, CY: 100,
	}}})
	p := sh.Paragraphs()[0]
	fld := newElement("a:fld", Attr{Name: "id", Value: "{B6F15528-21DE-4FAA-801E-634DDDAF4B2B}"}, Attr{Name: "type", Value: "slidenum"})
	t1 := newElement("a:t")
	t1.SetInnerText("3")
	fld.Append(t1)
	p.node.InsertAt(p.node.IndexOf(p.node.Child("a:endParaRPr")), fld)

	if got := p.Text(); got != "{{Product code}} page " {
		t.Fatalf("text=%q", got)
	}
	p.SetText("Product Code: 03194 page ")

	fields := p.node.ChildrenNamed("a:fld")
	if len(fields) != 1 {
		t.Fatalf("fields=%d", len(fields))
	}
	if typ, _ := fields[0].Attr("type"); typ != "slidenum" {
		t.Fatalf("field type=%q", typ)
	}
	names := []string{}
	for _, c := range p.node.Children {
		if c.IsElement() {
			names = append(names, c.Name)
		}
	}
	if got := strings.Join(names, ","); got != "a:r,a:fld,a:endParaRPr" {
		t.Fatalf("children=%s", got)
	}
}

func TestRunHyperlink(t *testing.T) {
	d, sh := firstShape(t, pptxtest.TextSlide("{{Product Fact Sheet link}}"))
	run := sh.Paragraphs()[0].Runs()[0]

	if err := run.SetHyperlink("https://example.test/sheet.pdf"); err != nil {
		t.Fatal(err)
	}
	run.SetText("Download Product Fact Sheet")
	if got := run.Hyperlink(); got != "https://example.test/sheet.pdf" {
		t.Fatalf("link=%q", got)
	}

	reopened := reopen(t, d)
	r2 := reopened.Slides()[0].Shapes()[0].Paragraphs()[0].Runs()[0]
	if r2.Hyperlink() != "https://example.test/sheet.pdf" || r2.Text() != "Download Product Fact Sheet" {
		t.Fatalf("after save: %q %q", r2.Text(), r2.Hyperlink())
	}
	rels, _ := reopened.pkg.rels(reopened.Slides()[0].Part())
	external := false
	for _, r := range rels {
		if r.Type == relHyperlink && r.External {
			external = true
		}
	}
	if !external {
		t.Fatal("hyperlink relationship not external")
	}

	if err := r2.SetHyperlink(""); err != nil {
		t.Fatal(err)
	}
	if r2.Hyperlink() != "" {
		t.Fatal("blank url should remove the link")
	}
}

func TestRunHyperlinkRejectsInvalidURL(t *testing.T) {
	_, sh := firstShape(t, pptxtest.TextSlide("x"))
	run := sh.Paragraphs()[0].Runs()[0]
	if err := run.SetHyperlink("http://[::1"); err == nil {
		t.Fatal("expected error")
	}
	if run.Hyperlink() != "" {
		t.Fatal("invalid url must not leave a link")
	}
}

func TestShapeClearText(t *testing.T) {
	_, sh := firstShape(t, pptxtest.Slide{Shapes: []pptxtest.Shape{{
		Paragraphs: [][]string{{"{{Product Packshot1}}"}, {"more"}},
		CX:         1, CY: 1,
	}}})
	sh.ClearText()
	if got := sh.Text(); got != "" {
		t.Fatalf("text=%q", got)
	}
	if n := len(sh.Paragraphs()); n != 1 {
		t.Fatalf("paragraphs=%d", n)
	}
}

func TestShapeFrameFallsBackToLayout(t *testing.T) {
	_, sh := firstShape(t, pptxtest.Slide{Shapes: []pptxtest.Shape{{
		Name:        "Body",
		Paragraphs:  [][]string{{"{{Product Lifestyle1}}"}},
		Placeholder: "1",
	}}})
	r, ok := sh.Frame()
	if !ok {
		t.Fatal("no frame")
	}
	f := pptxtest.LayoutBodyFrame
	if r != (Rect{X: f[0], Y: f[1], CX: f[2], CY: f[3]}) {
		t.Fatalf("frame=%+v", r)
	}
}

func TestAddPicture(t *testing.T) {
	d, sh := firstShape(t, pptxtest.TextSlide("{{Product Packshot1}}"))
	s := d.Slides()[0]
	frame, ok := sh.Frame()
	if !ok {
		t.Fatal("no frame")
	}
	if err := s.AddPicture([]byte("jpeg-bytes"), Rect{X: frame.X, Y: frame.Y, CX: 500, CY: 250}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddPicture([]byte("jpeg-bytes-2"), frame); err != nil {
		t.Fatal(err)
	}

	reopened := reopen(t, d)
	s2 := reopened.Slides()[0]
	pics := s2.Pictures()
	if len(pics) != 2 || pics[0].RelID == pics[1].RelID {
		t.Fatalf("pictures=%+v", pics)
	}
	if pics[0].Frame != (Rect{X: frame.X, Y: frame.Y, CX: 500, CY: 250}) {
		t.Fatalf("frame=%+v", pics[0].Frame)
	}
	if !reopened.pkg.Has("ppt/media/image1.jpeg") || !reopened.pkg.Has("ppt/media/image2.jpeg") {
		t.Fatalf("media parts missing: %v", reopened.pkg.Names())
	}
	types, _ := reopened.pkg.Doc(contentTypesPart)
	if !strings.Contains(string(types.Bytes()), `Extension="jpeg"`) {
		t.Fatal("jpeg default content type missing")
	}
	cNvPr := s2.doc.Root.Descendants("p:cNvPr")
	seen := map[string]bool{}
	for _, c := range cNvPr {
		id, _ := c.Attr("id")
		if seen[id] {
			t.Fatalf("duplicate shape id %s", id)
		}
		seen[id] = true
	}
}
