package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var ErrNoSlides = errors.New("presentation has no slides")

const (
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

// Deck is an opened presentation.
type Deck struct {
	pkg      *Package
	presPart string
	slides   []*Slide
}

func Open(path string) (*Deck, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return OpenBytes(blob)
}

func OpenReader(r io.Reader) (*Deck, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return OpenBytes(blob)
}

func OpenBytes(blob []byte) (*Deck, error) {
	pkg, err := readPackage(blob)
	if err != nil {
		return nil, err
	}
	if !pkg.Has(contentTypesPart) {
		return nil, errors.New("not a presentation: no [Content_Types].xml")
	}

	rootRels, err := pkg.rels("")
	if err != nil {
		return nil, err
	}
	presPart := ""
	for _, r := range rootRels {
		if r.Type == relOfficeDocument {
			presPart = resolveTarget("", r.Target)
			break
		}
	}
	if presPart == "" || !pkg.Has(presPart) {
		return nil, errors.New("not a presentation: no main document part")
	}

	d := &Deck{pkg: pkg, presPart: presPart}
	if err := d.loadSlides(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deck) presentation() (*Node, error) {
	doc, err := d.pkg.Doc(d.presPart)
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

func (d *Deck) loadSlides() error {
	pres, err := d.presentation()
	if err != nil {
		return err
	}
	list := pres.Child("p:sldIdLst")
	if list == nil {
		return nil
	}
	for _, sid := range list.ChildrenNamed("p:sldId") {
		rid, _ := sid.Attr("r:id")
		rel, ok, err := d.pkg.relByID(d.presPart, rid)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("slide relationship %s not found", rid)
		}
		part := resolveTarget(d.presPart, rel.Target)
		doc, err := d.pkg.Doc(part)
		if err != nil {
			return err
		}
		d.slides = append(d.slides, &Slide{deck: d, part: part, doc: doc, sldID: sid})
	}
	return nil
}

func (d *Deck) Slides() []*Slide {
	return append([]*Slide(nil), d.slides...)
}

func (d *Deck) Len() int { return len(d.slides) }

// SlideSize returns the slide width and height in EMU.
func (d *Deck) SlideSize() (cx, cy int64) {
	pres, err := d.presentation()
	if err != nil {
		return 0, 0
	}
	sz := pres.Child("p:sldSz")
	if sz == nil {
		return 0, 0
	}
	return attrInt(sz, "cx"), attrInt(sz, "cy")
}

// DetachSlide removes slide i from the deck together with its relationships and notes, and
// returns it as a detached slide that can still be cloned with AddSlideFrom.
func (d *Deck) DetachSlide(i int) (*Slide, error) {
	if len(d.slides) == 0 {
		return nil, ErrNoSlides
	}
	if i < 0 || i >= len(d.slides) {
		return nil, fmt.Errorf("slide index %d out of range [0,%d)", i, len(d.slides))
	}
	s := d.slides[i]

	relsName := relsPartFor(s.part)
	if d.pkg.Has(relsName) {
		relsDoc, err := d.pkg.Doc(relsName)
		if err != nil {
			return nil, err
		}
		s.heldRels = relsDoc.Clone()
	}

	rels, err := d.pkg.rels(s.part)
	if err != nil {
		return nil, err
	}
	for _, r := range rels {
		if r.Type != relNotesSlide || r.External {
			continue
		}
		notes := resolveTarget(s.part, r.Target)
		d.pkg.Delete(notes)
		d.pkg.Delete(relsPartFor(notes))
		if err := d.pkg.removeOverride(notes); err != nil {
			return nil, err
		}
	}

	pres, err := d.presentation()
	if err != nil {
		return nil, err
	}
	rid, _ := s.sldID.Attr("r:id")
	if err := d.pkg.removeRel(d.presPart, rid); err != nil {
		return nil, err
	}
	if list := pres.Child("p:sldIdLst"); list != nil {
		list.Remove(s.sldID)
	}

	d.pkg.Delete(s.part)
	d.pkg.Delete(relsName)
	if err := d.pkg.removeOverride(s.part); err != nil {
		return nil, err
	}

	d.slides = append(d.slides[:i], d.slides[i+1:]...)
	s.detached = true
	s.sldID = nil
	return s, nil
}

// AddSlideFrom appends a deep copy of src to the deck. The copy shares src's layout and
// media but not its notes, and is always visible.
func (d *Deck) AddSlideFrom(src *Slide) (*Slide, error) {
	part := d.pkg.nextPartName("ppt/slides/slide", ".xml")

	doc := src.doc.Clone()
	doc.Root.RemoveAttr("show")
	d.pkg.SetDoc(part, doc)

	srcRels, err := src.relsDocument()
	if err != nil {
		return nil, err
	}
	if srcRels != nil {
		rels := srcRels.Clone()
		for _, r := range rels.Root.ChildrenNamed("Relationship") {
			if typ, _ := r.Attr("Type"); typ == relNotesSlide {
				rels.Root.Remove(r)
			}
		}
		d.pkg.SetDoc(relsPartFor(part), rels)
	}

	if err := d.pkg.addOverride(part, ctSlide); err != nil {
		return nil, err
	}
	rid, err := d.pkg.addRel(d.presPart, relSlide, relativeTarget(d.presPart, part), false)
	if err != nil {
		return nil, err
	}

	pres, err := d.presentation()
	if err != nil {
		return nil, err
	}
	list := pres.Child("p:sldIdLst")
	if list == nil {
		list = newElement("p:sldIdLst")
		insertBefore(pres, list, "p:sldSz", "p:notesSz", "p:smartTags", "p:embeddedFontLst",
			"p:custShowLst", "p:photoAlbum", "p:custDataLst", "p:kinsoku", "p:defaultTextStyle",
			"p:modifyVerifier", "p:extLst")
	}
	ensureNamespace(pres, "r", nsRelationships)
	sid := newElement("p:sldId",
		Attr{Name: "id", Value: strconv.FormatInt(nextSlideID(list), 10)},
		Attr{Name: "r:id", Value: rid},
	)
	list.Append(sid)

	s := &Slide{deck: d, part: part, doc: doc, sldID: sid}
	d.slides = append(d.slides, s)
	return s, nil
}

// slide ids start at 256
func nextSlideID(list *Node) int64 {
	max := int64(255)
	for _, sid := range list.ChildrenNamed("p:sldId") {
		if id := attrInt(sid, "id"); id > max {
			max = id
		}
	}
	return max + 1
}

func (d *Deck) Save(w io.Writer) error {
	_, err := d.pkg.WriteTo(w)
	return err
}

func (d *Deck) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// insertBefore puts child ahead of the first existing sibling named in before, or last.
func insertBefore(parent, child *Node, before ...string) {
	for i, c := range parent.Children {
		if !c.IsElement() {
			continue
		}
		for _, name := range before {
			if c.Name == name {
				parent.InsertAt(i, child)
				return
			}
		}
	}
	parent.Append(child)
}

func ensureNamespace(root *Node, prefix, uri string) {
	if _, ok := root.Attr("xmlns:" + prefix); !ok {
		root.SetAttr("xmlns:"+prefix, uri)
	}
}

func attrInt(n *Node, name string) int64 {
	v, _ := n.Attr(name)
	i, _ := strconv.ParseInt(v, 10, 64)
	return i
}
