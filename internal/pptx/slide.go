package pptx

import (
	"errors"
	"fmt"
	"strconv"
)

// Slide is one slide part. A detached slide is no longer in the deck but keeps its XML and
// relationships so it can serve as a clone source.
type Slide struct {
	deck     *Deck
	part     string
	doc      *Document
	sldID    *Node
	detached bool
	heldRels *Document
}

// Rect is a shape frame in EMU.
type Rect struct {
	X, Y, CX, CY int64
}

func (s *Slide) Part() string { return s.part }

func (s *Slide) Detached() bool { return s.detached }

func (s *Slide) Hidden() bool {
	v, ok := s.doc.Root.Attr("show")
	return ok && (v == "0" || v == "false")
}

func (s *Slide) relsDocument() (*Document, error) {
	if s.detached {
		return s.heldRels, nil
	}
	name := relsPartFor(s.part)
	if !s.deck.pkg.Has(name) {
		return nil, nil
	}
	return s.deck.pkg.Doc(name)
}

func (s *Slide) spTree() *Node {
	return s.doc.Root.Path("p:cSld", "p:spTree")
}

// Shapes returns the top-level text-bearing shapes in z-order.
func (s *Slide) Shapes() []*Shape {
	tree := s.spTree()
	if tree == nil {
		return nil
	}
	out := []*Shape{}
	for _, sp := range tree.ChildrenNamed("p:sp") {
		if sp.Child("p:txBody") == nil {
			continue
		}
		out = append(out, &Shape{slide: s, node: sp})
	}
	return out
}

// Picture is a top-level picture: its image relationship and frame.
type Picture struct {
	RelID string
	Frame Rect
}

func (s *Slide) Pictures() []Picture {
	tree := s.spTree()
	if tree == nil {
		return nil
	}
	out := []Picture{}
	for _, pic := range tree.ChildrenNamed("p:pic") {
		p := Picture{}
		if blip := pic.Path("p:blipFill", "a:blip"); blip != nil {
			p.RelID, _ = blip.Attr("r:embed")
		}
		p.Frame, _ = xfrmRect(pic)
		out = append(out, p)
	}
	return out
}

// Text joins the text of every shape, one shape per line.
func (s *Slide) Text() string {
	text := ""
	for i, sh := range s.Shapes() {
		if i > 0 {
			text += "\n"
		}
		text += sh.Text()
	}
	return text
}

// AddPicture embeds a JPEG and places it at frame on top of the other shapes.
func (s *Slide) AddPicture(jpeg []byte, frame Rect) error {
	if s.detached {
		return errors.New("cannot add a picture to a detached slide")
	}
	tree := s.spTree()
	if tree == nil {
		return fmt.Errorf("%s has no shape tree", s.part)
	}
	pkg := s.deck.pkg

	media := pkg.nextPartName("ppt/media/image", ".jpeg")
	pkg.SetRaw(media, jpeg)
	if err := pkg.ensureDefault("jpeg", ctJPEG); err != nil {
		return err
	}
	rid, err := pkg.addRel(s.part, relImage, relativeTarget(s.part, media), false)
	if err != nil {
		return err
	}

	ensureNamespace(s.doc.Root, "r", nsRelationships)
	ensureNamespace(s.doc.Root, "a", nsDrawingML)

	id := s.nextShapeID()
	name := "Picture " + strconv.FormatInt(id-1, 10)
	pic := newElement("p:pic")
	pic.Append(
		el("p:nvPicPr",
			newElement("p:cNvPr", Attr{Name: "id", Value: strconv.FormatInt(id, 10)}, Attr{Name: "name", Value: name}),
			el("p:cNvPicPr", newElement("a:picLocks", Attr{Name: "noChangeAspect", Value: "1"})),
			newElement("p:nvPr"),
		),
		el("p:blipFill",
			newElement("a:blip", Attr{Name: "r:embed", Value: rid}),
			el("a:stretch", newElement("a:fillRect")),
		),
		el("p:spPr",
			el("a:xfrm",
				newElement("a:off", Attr{Name: "x", Value: itoa(frame.X)}, Attr{Name: "y", Value: itoa(frame.Y)}),
				newElement("a:ext", Attr{Name: "cx", Value: itoa(frame.CX)}, Attr{Name: "cy", Value: itoa(frame.CY)}),
			),
			el("a:prstGeom", newElement("a:avLst")).withAttr("prst", "rect"),
		),
	)
	insertBefore(tree, pic, "p:extLst")
	return nil
}

func (s *Slide) nextShapeID() int64 {
	max := int64(0)
	for _, c := range s.doc.Root.Descendants("p:cNvPr") {
		if id := attrInt(c, "id"); id > max {
			max = id
		}
	}
	return max + 1
}

// layoutPart follows the slide's slideLayout relationship.
func (s *Slide) layoutPart() (string, error) {
	rels, err := s.relsDocument()
	if err != nil || rels == nil {
		return "", err
	}
	for _, r := range rels.Root.ChildrenNamed("Relationship") {
		if typ, _ := r.Attr("Type"); typ == relSlideLayout {
			target, _ := r.Attr("Target")
			return resolveTarget(s.part, target), nil
		}
	}
	return "", nil
}

func el(name string, children ...*Node) *Node {
	n := newElement(name)
	n.Append(children...)
	return n
}

func (n *Node) withAttr(name, value string) *Node {
	n.SetAttr(name, value)
	return n
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
