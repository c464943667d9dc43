// Package ooxml rewrites the text nodes of Office Open XML packages without
// building a document model, so memory stays bounded by the largest text run.
package ooxml

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// TextFunc transforms the decoded character data of one text node.
type TextFunc func(string) string

const bufSize = 64 << 10

// RewriteText copies an XML stream from r to w, passing the character data of
// every <t> element (any namespace prefix) through fn. The <v> value of a
// formula string cell (<c t="str">) is rewritten too, since it holds the text
// the spreadsheet displays. Everything else is copied byte for byte; text
// nodes fn leaves unchanged are not re-encoded.
func RewriteText(r io.Reader, w io.Writer, fn TextFunc) error {
	br := bufio.NewReaderSize(r, bufSize)
	bw := bufio.NewWriterSize(w, bufSize)
	inText := false
	inStrCell := false

	for {
		chunk, err := br.ReadBytes('<')
		if err != nil && err != io.EOF {
			return eris.Wrap(err, "ooxml: read character data")
		}
		text := chunk
		if err == nil {
			text = chunk[:len(chunk)-1]
		}
		if inText && len(text) > 0 {
			if werr := writeText(bw, text, fn); werr != nil {
				return werr
			}
		} else if _, werr := bw.Write(text); werr != nil {
			return eris.Wrap(werr, "ooxml: write character data")
		}
		if err == io.EOF {
			return eris.Wrap(bw.Flush(), "ooxml: flush")
		}

		tag, err := readTag(br)
		if err != nil {
			return err
		}
		if _, err := bw.WriteString("<"); err != nil {
			return eris.Wrap(err, "ooxml: write tag")
		}
		if _, err := bw.Write(tag); err != nil {
			return eris.Wrap(err, "ooxml: write tag")
		}

		name, closing, selfClosing := classify(tag)
		switch name {
		case "c":
			inStrCell = !closing && !selfClosing && attrValue(tag, "t") == "str"
		case "v":
			if !inStrCell {
				continue
			}
			fallthrough
		case "t":
			switch {
			case closing:
				inText = false
			case !selfClosing:
				inText = true
			}
		}
	}
}

// attrValue returns the value of the unprefixed attribute key in an opening
// tag, or "" when it is absent.
func attrValue(tag []byte, key string) string {
	rest := tag
	for {
		i := bytes.IndexAny(rest, " \t\r\n")
		if i < 0 {
			return ""
		}
		rest = bytes.TrimLeft(rest[i:], " \t\r\n")
		eq := bytes.IndexByte(rest, '=')
		if eq < 0 {
			return ""
		}
		name := bytes.TrimSpace(rest[:eq])
		val := bytes.TrimLeft(rest[eq+1:], " \t\r\n")
		if len(val) == 0 || (val[0] != '"' && val[0] != '\'') {
			return ""
		}
		end := bytes.IndexByte(val[1:], val[0])
		if end < 0 {
			return ""
		}
		if string(name) == key {
			return string(val[1 : end+1])
		}
		rest = val[end+2:]
	}
}

// readTag reads the remainder of a markup construct after its '<', including
// the closing '>'. Comments and CDATA sections may contain '>' and are read
// up to their own terminators.
func readTag(br *bufio.Reader) ([]byte, error) {
	tag, err := br.ReadBytes('>')
	if err != nil {
		return nil, eris.Wrap(err, "ooxml: unterminated tag")
	}
	var end []byte
	switch {
	case bytes.HasPrefix(tag, []byte("!--")):
		end = []byte("-->")
	case bytes.HasPrefix(tag, []byte("![CDATA[")):
		end = []byte("]]>")
	default:
		return tag, nil
	}
	for !bytes.HasSuffix(tag, end) {
		more, err := br.ReadBytes('>')
		if err != nil {
			return nil, eris.Wrap(err, "ooxml: unterminated comment or CDATA")
		}
		tag = append(tag, more...)
	}
	return tag, nil
}

// classify returns the local element name of a tag and whether it closes or
// self-closes the element. Declarations, comments and PIs yield an empty name.
func classify(tag []byte) (name string, closing, selfClosing bool) {
	if len(tag) == 0 || tag[0] == '?' || tag[0] == '!' {
		return "", false, false
	}
	body := tag[:len(tag)-1]
	if len(body) > 0 && body[0] == '/' {
		closing = true
		body = body[1:]
	}
	if len(body) > 0 && body[len(body)-1] == '/' {
		selfClosing = true
		body = body[:len(body)-1]
	}
	end := bytes.IndexAny(body, " \t\r\n")
	if end >= 0 {
		body = body[:end]
	}
	if i := bytes.LastIndexByte(body, ':'); i >= 0 {
		body = body[i+1:]
	}
	return string(body), closing, selfClosing
}

func writeText(bw *bufio.Writer, raw []byte, fn TextFunc) error {
	decoded := html.UnescapeString(string(raw))
	out := fn(decoded)
	if out == decoded {
		_, err := bw.Write(raw)
		return eris.Wrap(err, "ooxml: write text")
	}
	return eris.Wrap(xml.EscapeText(bw, []byte(out)), "ooxml: escape text")
}

// RewritePackage rewrites, entry by entry, the zip package at path. Entries
// for which match returns true go through RewriteText; the others are copied
// without recompression. The result replaces path atomically.
func RewritePackage(ctx context.Context, path string, match func(name string) bool, fn TextFunc) (err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return eris.Wrapf(err, "ooxml: open package %s", path)
	}
	defer zr.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".rewrite-*"+filepath.Ext(path))
	if err != nil {
		return eris.Wrap(err, "ooxml: create temp file")
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
		if err = ctx.Err(); err != nil {
			return eris.Wrap(err, "ooxml: rewrite cancelled")
		}
		if !match(f.Name) {
			if err = zw.Copy(f); err != nil {
				return eris.Wrapf(err, "ooxml: copy entry %s", f.Name)
			}
			continue
		}
		if err = rewriteEntry(zw, f, fn); err != nil {
			return err
		}
	}
	if err = zw.Close(); err != nil {
		return eris.Wrap(err, "ooxml: finalize package")
	}
	if err = tmp.Close(); err != nil {
		return eris.Wrap(err, "ooxml: close temp file")
	}
	if err = zr.Close(); err != nil {
		return eris.Wrap(err, "ooxml: close package")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "ooxml: replace %s", path)
	}
	return nil
}

func rewriteEntry(zw *zip.Writer, f *zip.File, fn TextFunc) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "ooxml: open entry %s", f.Name)
	}
	defer rc.Close()

	hdr := &zip.FileHeader{
		Name:     f.Name,
		Method:   f.Method,
		Modified: f.Modified,
	}
	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return eris.Wrapf(err, "ooxml: create entry %s", f.Name)
	}
	if err := RewriteText(rc, dst, fn); err != nil {
		return eris.Wrapf(err, "ooxml: rewrite entry %s", f.Name)
	}
	return nil
}

// SpreadsheetTextParts matches the parts of a workbook that carry cell text.
func SpreadsheetTextParts(name string) bool {
	return name == "xl/sharedStrings.xml" ||
		(strings.HasPrefix(name, "xl/worksheets/") && strings.HasSuffix(name, ".xml"))
}

// WordBodyPart matches the main body part of a word-processing document.
func WordBodyPart(name string) bool {
	return name == "word/document.xml"
}
