package docx

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/rotisserie/eris"
)

const (
	bodyPart   = "word/document.xml"
	stylesPart = "word/styles.xml"
)

// wordDoc is the parsed main body of a word-processing package.
type wordDoc struct {
	xml    *etree.Document
	body   *etree.Element
	styles map[string]string
	defSty string
}

func openDoc(path string) (*wordDoc, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, eris.Wrapf(err, "docx: open %s", path)
	}
	defer zr.Close()

	doc := &wordDoc{styles: map[string]string{}, defSty: "Normal"}
	for _, f := range zr.File {
		switch f.Name {
		case bodyPart:
			x, err := readPart(f)
			if err != nil {
				return nil, err
			}
			doc.xml = x
		case stylesPart:
			x, err := readPart(f)
			if err != nil {
				return nil, err
			}
			doc.loadStyles(x)
		}
	}
	if doc.xml == nil || doc.xml.Root() == nil {
		return nil, eris.Errorf("docx: %s has no %s", path, bodyPart)
	}
	doc.body = doc.xml.Root().SelectElement("w:body")
	if doc.body == nil {
		return nil, eris.Errorf("docx: %s has no body", path)
	}
	return doc, nil
}

func readPart(f *zip.File) (*etree.Document, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "docx: open part %s", f.Name)
	}
	defer rc.Close()

	x := etree.NewDocument()
	if _, err := x.ReadFrom(rc); err != nil {
		return nil, eris.Wrapf(err, "docx: parse part %s", f.Name)
	}
	return x, nil
}

// loadStyles maps paragraph style ids to their display names.
func (d *wordDoc) loadStyles(x *etree.Document) {
	root := x.Root()
	if root == nil {
		return
	}
	for _, st := range root.SelectElements("w:style") {
		if st.SelectAttrValue("w:type", "") != "paragraph" {
			continue
		}
		id := st.SelectAttrValue("w:styleId", "")
		name := id
		if n := st.SelectElement("w:name"); n != nil {
			name = n.SelectAttrValue("w:val", id)
		}
		if id != "" {
			d.styles[id] = name
		}
		if st.SelectAttrValue("w:default", "") == "1" {
			d.defSty = name
		}
	}
}

// save writes the modified body back into the package at path, copying every
// other part unchanged. The package is replaced through a temp file.
func (d *wordDoc) save(path string) (err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return eris.Wrapf(err, "docx: open %s", path)
	}
	defer zr.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".docx-*")
	if err != nil {
		return eris.Wrap(err, "docx: create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, f := range zr.File {
		if f.Name != bodyPart {
			if err = zw.Copy(f); err != nil {
				return eris.Wrapf(err, "docx: copy part %s", f.Name)
			}
			continue
		}
		var w io.Writer
		w, err = zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return eris.Wrap(err, "docx: create body part")
		}
		if _, err = d.xml.WriteTo(w); err != nil {
			return eris.Wrap(err, "docx: write body part")
		}
	}
	if err = zw.Close(); err != nil {
		return eris.Wrap(err, "docx: finalize package")
	}
	if err = tmp.Close(); err != nil {
		return eris.Wrap(err, "docx: close temp file")
	}
	if err = zr.Close(); err != nil {
		return eris.Wrap(err, "docx: close package")
	}
	return eris.Wrapf(os.Rename(tmpName, path), "docx: replace %s", path)
}

// paragraphs returns the direct paragraph children of el.
func paragraphs(el *etree.Element) []*etree.Element {
	return el.SelectElements("w:p")
}

// tableParagraphs returns every paragraph held directly by a cell of tbl, row
// by row and cell by cell.
func tableParagraphs(tbl *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, tr := range tbl.SelectElements("w:tr") {
		for _, tc := range tr.SelectElements("w:tc") {
			out = append(out, paragraphs(tc)...)
		}
	}
	return out
}

// styleName resolves the display name of a paragraph's style.
func (d *wordDoc) styleName(p *etree.Element) string {
	if ppr := p.SelectElement("w:pPr"); ppr != nil {
		if ps := ppr.SelectElement("w:pStyle"); ps != nil {
			id := ps.SelectAttrValue("w:val", "")
			if name, ok := d.styles[id]; ok {
				return name
			}
			if id != "" {
				return id
			}
		}
	}
	return d.defSty
}

var skipSubtrees = map[string]bool{
	"pPr":              true,
	"rPr":              true,
	"del":              true,
	"drawing":          true,
	"pict":             true,
	"AlternateContent": true,
	"txbxContent":      true,
}

// paragraphText concatenates the visible text of a paragraph's runs.
func paragraphText(p *etree.Element) string {
	var b strings.Builder
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			switch child.Tag {
			case "t":
				b.WriteString(child.Text())
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			default:
				if !skipSubtrees[child.Tag] {
					walk(child)
				}
			}
		}
	}
	walk(p)
	return b.String()
}

// cellText joins the paragraphs of a table cell with newlines.
func cellText(tc *etree.Element) string {
	var parts []string
	for _, p := range paragraphs(tc) {
		parts = append(parts, paragraphText(p))
	}
	return strings.Join(parts, "\n")
}

// fillRun replaces the content of run r, keeping its formatting, with text.
// Newlines become line breaks.
func fillRun(r *etree.Element, text string) {
	for _, child := range r.ChildElements() {
		if child.Tag != "rPr" {
			r.RemoveChild(child)
		}
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.CreateElement("w:br")
		}
		if line == "" {
			continue
		}
		t := r.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(line)
	}
}

// addRun appends a new run holding text to paragraph p.
func addRun(p *etree.Element, text string) {
	fillRun(p.CreateElement("w:r"), text)
}
