package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

const contentTypesPart = "[Content_Types].xml"

// Relationship and content types used by the deck.
const (
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relNotesSlide     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

	ctSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctJPEG  = "image/jpeg"
	ctRels  = "application/vnd.openxmlformats-package.relationships+xml"

	nsPackageRels = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// Package is an OPC zip held in memory. Parts are raw bytes until first parsed; parsed parts
// are serialized again on save.
type Package struct {
	order []string
	raw   map[string][]byte
	docs  map[string]*Document
}

func readPackage(blob []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	p := &Package{raw: map[string][]byte{}, docs: map[string]*Document{}}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		p.order = append(p.order, f.Name)
		p.raw[f.Name] = data
	}
	return p, nil
}

func (p *Package) Has(name string) bool {
	if _, ok := p.docs[name]; ok {
		return true
	}
	_, ok := p.raw[name]
	return ok
}

// Names lists part names in zip order.
func (p *Package) Names() []string {
	return append([]string(nil), p.order...)
}

func (p *Package) Doc(name string) (*Document, error) {
	if doc, ok := p.docs[name]; ok {
		return doc, nil
	}
	data, ok := p.raw[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	p.docs[name] = doc
	delete(p.raw, name)
	return doc, nil
}

func (p *Package) SetDoc(name string, doc *Document) {
	p.track(name)
	delete(p.raw, name)
	p.docs[name] = doc
}

func (p *Package) SetRaw(name string, data []byte) {
	p.track(name)
	delete(p.docs, name)
	p.raw[name] = data
}

func (p *Package) Delete(name string) {
	delete(p.raw, name)
	delete(p.docs, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *Package) track(name string) {
	if !p.Has(name) {
		p.order = append(p.order, name)
	}
}

// WriteTo writes the package as a zip. [Content_Types].xml always comes first.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	names := p.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return names[i] == contentTypesPart && names[j] != contentTypesPart
	})
	for _, name := range names {
		var data []byte
		if doc, ok := p.docs[name]; ok {
			data = doc.Bytes()
		} else {
			data = p.raw[name]
		}
		fw, err := zw.Create(name)
		if err != nil {
			return cw.n, fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return cw.n, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

// content types

func (p *Package) contentTypes() (*Node, error) {
	doc, err := p.Doc(contentTypesPart)
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

func (p *Package) addOverride(part, contentType string) error {
	types, err := p.contentTypes()
	if err != nil {
		return err
	}
	partName := "/" + part
	for _, o := range types.ChildrenNamed("Override") {
		if v, _ := o.Attr("PartName"); v == partName {
			o.SetAttr("ContentType", contentType)
			return nil
		}
	}
	types.Append(newElement("Override",
		Attr{Name: "PartName", Value: partName},
		Attr{Name: "ContentType", Value: contentType},
	))
	return nil
}

func (p *Package) removeOverride(part string) error {
	types, err := p.contentTypes()
	if err != nil {
		return err
	}
	partName := "/" + part
	for _, o := range types.ChildrenNamed("Override") {
		if v, _ := o.Attr("PartName"); strings.EqualFold(v, partName) {
			types.Remove(o)
		}
	}
	return nil
}

func (p *Package) ensureDefault(ext, contentType string) error {
	types, err := p.contentTypes()
	if err != nil {
		return err
	}
	for _, d := range types.ChildrenNamed("Default") {
		if v, _ := d.Attr("Extension"); strings.EqualFold(v, ext) {
			return nil
		}
	}
	def := newElement("Default",
		Attr{Name: "Extension", Value: ext},
		Attr{Name: "ContentType", Value: contentType},
	)
	// Defaults precede overrides.
	idx := -1
	for i, c := range types.Children {
		if c.IsElement() && c.Name == "Override" {
			idx = i
			break
		}
	}
	types.InsertAt(idx, def)
	return nil
}

// relationships

type relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

func relsPartFor(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget turns a relationship target into a part name relative to the package root.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relativeTarget is the inverse of resolveTarget for parts in sibling directories.
func relativeTarget(source, part string) string {
	srcDir := strings.Split(path.Dir(source), "/")
	dst := strings.Split(part, "/")
	i := 0
	for i < len(srcDir) && i < len(dst)-1 && srcDir[i] == dst[i] {
		i++
	}
	parts := []string{}
	for range srcDir[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, dst[i:]...)
	return strings.Join(parts, "/")
}

// relsDoc returns the relationships document of part, creating an empty one when absent.
func (p *Package) relsDoc(part string) (*Document, error) {
	name := relsPartFor(part)
	if p.Has(name) {
		return p.Doc(name)
	}
	doc := &Document{
		Prolog: []*Node{{kind: procInstNode, Name: "xml", Text: `version="1.0" encoding="UTF-8" standalone="yes"`}},
		Root:   newElement("Relationships", Attr{Name: "xmlns", Value: nsPackageRels}),
	}
	p.SetDoc(name, doc)
	return doc, nil
}

func (p *Package) rels(part string) ([]relationship, error) {
	if !p.Has(relsPartFor(part)) {
		return nil, nil
	}
	doc, err := p.Doc(relsPartFor(part))
	if err != nil {
		return nil, err
	}
	out := []relationship{}
	for _, r := range doc.Root.ChildrenNamed("Relationship") {
		id, _ := r.Attr("Id")
		typ, _ := r.Attr("Type")
		target, _ := r.Attr("Target")
		mode, _ := r.Attr("TargetMode")
		out = append(out, relationship{ID: id, Type: typ, Target: target, External: mode == "External"})
	}
	return out, nil
}

func (p *Package) relByID(part, id string) (relationship, bool, error) {
	rels, err := p.rels(part)
	if err != nil {
		return relationship{}, false, err
	}
	for _, r := range rels {
		if r.ID == id {
			return r, true, nil
		}
	}
	return relationship{}, false, nil
}

func (p *Package) addRel(part, typ, target string, external bool) (string, error) {
	doc, err := p.relsDoc(part)
	if err != nil {
		return "", err
	}
	id := nextRelID(doc.Root)
	rel := newElement("Relationship",
		Attr{Name: "Id", Value: id},
		Attr{Name: "Type", Value: typ},
		Attr{Name: "Target", Value: target},
	)
	if external {
		rel.SetAttr("TargetMode", "External")
	}
	doc.Root.Append(rel)
	return id, nil
}

func (p *Package) removeRel(part, id string) error {
	if !p.Has(relsPartFor(part)) {
		return nil
	}
	doc, err := p.Doc(relsPartFor(part))
	if err != nil {
		return err
	}
	for _, r := range doc.Root.ChildrenNamed("Relationship") {
		if v, _ := r.Attr("Id"); v == id {
			doc.Root.Remove(r)
		}
	}
	return nil
}

func nextRelID(root *Node) string {
	max := 0
	for _, r := range root.ChildrenNamed("Relationship") {
		id, _ := r.Attr("Id")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > max {
			max = n
		}
	}
	return "rId" + strconv.Itoa(max+1)
}

// nextPartName returns the first unused "<prefix><n><ext>" part name.
func (p *Package) nextPartName(prefix, ext string) string {
	for n := 1; ; n++ {
		name := prefix + strconv.Itoa(n) + ext
		if !p.Has(name) {
			return name
		}
	}
}
