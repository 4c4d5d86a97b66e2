// Package pptxtest builds small presentations in memory for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Shape is a text box. Each paragraph is a list of runs. When Placeholder is set and the
// frame is zero the shape carries no transform and inherits the layout's body frame.
type Shape struct {
	Name        string
	Paragraphs  [][]string
	X, Y        int64
	CX, CY      int64
	Placeholder string
}

type Slide struct {
	Shapes []Shape
	Hidden bool
	Notes  string
}

// LayoutBodyFrame is the frame of the layout's body placeholder (idx 1).
var LayoutBodyFrame = [4]int64{457200, 1600200, 8229600, 4525963}

const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

const (
	nsP   = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	nsRel = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	ctPML = "application/vnd.openxmlformats-officedocument.presentationml."
)

// Build returns the bytes of a .pptx holding the given slides.
func Build(slides ...Slide) []byte {
	parts := [][2]string{}
	add := func(name, body string) { parts = append(parts, [2]string{name, header + body}) }

	var ct strings.Builder
	ct.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	ct.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="` + ctPML + `presentation.main+xml"/>`)
	ct.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="` + ctPML + `slideMaster+xml"/>`)
	ct.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="` + ctPML + `slideLayout+xml"/>`)
	for i, s := range slides {
		ct.WriteString(fmt.Sprintf(`<Override PartName="/ppt/slides/slide%d.xml" ContentType="%sslide+xml"/>`, i+1, ctPML))
		if s.Notes != "" {
			ct.WriteString(fmt.Sprintf(`<Override PartName="/ppt/notesSlides/notesSlide%d.xml" ContentType="%snotesSlide+xml"/>`, i+1, ctPML))
		}
	}
	ct.WriteString(`</Types>`)
	add("[Content_Types].xml", ct.String())

	add("_rels/.rels", rels(rel("rId1", "officeDocument", "ppt/presentation.xml")))

	var ids, presRels strings.Builder
	presRels.WriteString(rel("rId1", "slideMaster", "slideMasters/slideMaster1.xml"))
	for i := range slides {
		ids.WriteString(fmt.Sprintf(`<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2))
		presRels.WriteString(rel(fmt.Sprintf("rId%d", i+2), "slide", fmt.Sprintf("slides/slide%d.xml", i+1)))
	}
	add("ppt/presentation.xml", `<p:presentation `+nsP+`>`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
		`<p:sldIdLst>`+ids.String()+`</p:sldIdLst>`+
		`<p:sldSz cx="9144000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>`+
		`</p:presentation>`)
	add("ppt/_rels/presentation.xml.rels", rels(presRels.String()))

	add("ppt/slideMasters/slideMaster1.xml", `<p:sldMaster `+nsP+`><p:cSld><p:spTree>`+groupProps()+`</p:spTree></p:cSld>`+
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`)
	add("ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(rel("rId1", "slideLayout", "../slideLayouts/slideLayout1.xml")))

	f := LayoutBodyFrame
	add("ppt/slideLayouts/slideLayout1.xml", `<p:sldLayout `+nsP+`><p:cSld><p:spTree>`+groupProps()+
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Body"/><p:cNvSpPr/><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>`+
		fmt.Sprintf(`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm></p:spPr>`, f[0], f[1], f[2], f[3])+
		`<p:txBody><a:bodyPr/><a:p/></p:txBody></p:sp></p:spTree></p:cSld></p:sldLayout>`)
	add("ppt/slideLayouts/_rels/slideLayout1.xml.rels", rels(rel("rId1", "slideMaster", "../slideMasters/slideMaster1.xml")))

	for i, s := range slides {
		n := i + 1
		add(fmt.Sprintf("ppt/slides/slide%d.xml", n), slideXML(s))
		slideRels := rel("rId1", "slideLayout", "../slideLayouts/slideLayout1.xml")
		if s.Notes != "" {
			slideRels += rel("rId2", "notesSlide", fmt.Sprintf("../notesSlides/notesSlide%d.xml", n))
			add(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), `<p:notes `+nsP+`><p:cSld><p:spTree>`+groupProps()+
				shapeXML(2, Shape{Name: "Notes", Paragraphs: [][]string{{s.Notes}}})+`</p:spTree></p:cSld></p:notes>`)
			add(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", n),
				rels(rel("rId1", "slide", fmt.Sprintf("../slides/slide%d.xml", n))))
		}
		add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), rels(slideRels))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p[0])
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(p[1])); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TextSlide is a slide with one shape per entry, each a single one-run paragraph.
func TextSlide(texts ...string) Slide {
	s := Slide{}
	for i, t := range texts {
		s.Shapes = append(s.Shapes, Shape{
			Name:       fmt.Sprintf("Text %d", i+1),
			Paragraphs: [][]string{{t}},
			X:          int64(i) * 100000, Y: 100000, CX: 2000000, CY: 1000000,
		})
	}
	return s
}

func slideXML(s Slide) string {
	var b strings.Builder
	b.WriteString(`<p:sld ` + nsP)
	if s.Hidden {
		b.WriteString(` show="0"`)
	}
	b.WriteString(`><p:cSld><p:spTree>` + groupProps())
	for i, sh := range s.Shapes {
		b.WriteString(shapeXML(i+2, sh))
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

func shapeXML(id int, sh Shape) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr>`, id, esc(sh.Name)))
	if sh.Placeholder != "" {
		b.WriteString(fmt.Sprintf(`<p:ph type="body" idx="%s"/>`, esc(sh.Placeholder)))
	}
	b.WriteString(`</p:nvPr></p:nvSpPr>`)
	if sh.CX == 0 && sh.CY == 0 && sh.Placeholder != "" {
		b.WriteString(`<p:spPr/>`)
	} else {
		b.WriteString(fmt.Sprintf(`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`,
			sh.X, sh.Y, sh.CX, sh.CY))
	}
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, para := range sh.Paragraphs {
		b.WriteString(`<a:p>`)
		for i, run := range para {
			b.WriteString(fmt.Sprintf(`<a:r><a:rPr lang="en-US" sz="%d" dirty="0"/><a:t>%s</a:t></a:r>`, 1800+i*200, esc(run)))
		}
		b.WriteString(`<a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
	}
	if len(sh.Paragraphs) == 0 {
		b.WriteString(`<a:p/>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func groupProps() string {
	return `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`
}

func rels(body string) string {
	return `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + body + `</Relationships>`
}

func rel(id, typ, target string) string {
	return fmt.Sprintf(`<Relationship Id="%s" Type="%s%s" Target="%s"/>`, id, nsRel, typ, target)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
