package wfs

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
	"github.com/opentrees/wfsget/internal/logger"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// emptyCollection is the merged root when there is nothing to merge.
var emptyCollection = xml.StartElement{
	Name: xml.Name{Space: "wfs", Local: "FeatureCollection"},
	Attr: []xml.Attr{{Name: xml.Name{Space: "xmlns", Local: "wfs"}, Value: "http://www.opengis.net/wfs/2.0"}},
}

// Root attributes that describe a single page and are wrong on the merged document.
var pageOnlyAttrs = map[string]bool{
	"next":             true,
	"previous":         true,
	"numberReturned":   true,
	"numberOfFeatures": true,
}

// Merger combines page artifacts into one document and removes them afterwards.
type Merger struct {
	fs driven.FileSystem
}

// NewMerger creates a merger over the given filesystem.
func NewMerger(fs driven.FileSystem) *Merger {
	return &Merger{fs: fs}
}

// page is one artifact split around its root element.
type page struct {
	root  xml.StartElement
	inner []byte
}

// Merge concatenates the root contents of artifacts, in order, under the root
// element of the first artifact and writes the result to out.
//
// Member bytes are copied verbatim; only the root start tag is rebuilt, adding
// namespace declarations later pages need and dropping paging attributes.
// The merged document is UTF-8.
func (m *Merger) Merge(artifacts []string, out string) error {
	var pages []page
	for _, a := range artifacts {
		data, err := m.fs.ReadFile(a)
		if err != nil {
			return domain.NewStageError(domain.StageMerge, "", domain.ErrMergeFailed, fmt.Errorf("read %s: %w", a, err))
		}
		p, err := splitPage(data)
		if err != nil {
			return domain.NewStageError(domain.StageMerge, "", domain.ErrMergeFailed, fmt.Errorf("%s: %w", a, err))
		}
		pages = append(pages, p)
	}

	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)

	root := emptyCollection
	if len(pages) > 0 {
		root = mergedRoot(pages)
	}
	writeStartTag(&buf, root)
	for _, p := range pages {
		buf.Write(p.inner)
	}
	buf.WriteString("</" + qualifiedName(root.Name) + ">\n")

	if dir := filepath.Dir(out); dir != "." && dir != "" {
		if err := m.fs.MkdirAll(dir); err != nil {
			return domain.NewStageError(domain.StageMerge, "", domain.ErrStorage, err)
		}
	}
	if err := m.fs.WriteFile(out, buf.Bytes()); err != nil {
		return domain.NewStageError(domain.StageMerge, "", domain.ErrStorage, err)
	}
	return nil
}

// Cleanup removes every artifact. Failures become warnings and never stop
// the remaining removals.
func (m *Merger) Cleanup(sourceID string, artifacts []string) []domain.CleanupWarning {
	log := logger.For(sourceID)
	var warnings []domain.CleanupWarning
	for _, a := range artifacts {
		if err := m.fs.Remove(a); err != nil {
			w := domain.CleanupWarning{Path: a, Err: err}
			log.Warn("%v", w)
			warnings = append(warnings, w)
			continue
		}
		log.Debug("removed %s", a)
	}
	return warnings
}

// mergedRoot takes the first page's root, drops page-only attributes and adds
// namespace declarations that only later pages carry.
func mergedRoot(pages []page) xml.StartElement {
	first := pages[0].root
	root := xml.StartElement{Name: first.Name}
	declared := make(map[string]bool)
	for _, a := range first.Attr {
		if a.Name.Space == "" && pageOnlyAttrs[a.Name.Local] {
			continue
		}
		if isNamespaceDecl(a) {
			declared[qualifiedName(a.Name)] = true
		}
		root.Attr = append(root.Attr, a)
	}
	for _, p := range pages[1:] {
		for _, a := range p.root.Attr {
			key := qualifiedName(a.Name)
			if isNamespaceDecl(a) && !declared[key] {
				declared[key] = true
				root.Attr = append(root.Attr, a)
			}
		}
	}
	return root
}

func isNamespaceDecl(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

func writeStartTag(buf *bytes.Buffer, el xml.StartElement) {
	buf.WriteString("<" + qualifiedName(el.Name))
	for _, a := range el.Attr {
		buf.WriteString(" " + qualifiedName(a.Name) + `="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
}

// splitPage returns the root start element and the raw bytes between the
// root's start and end tags.
func splitPage(data []byte) (page, error) {
	data, err := toUTF8(data)
	if err != nil {
		return page{}, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var p page
	depth := 0
	innerStart := -1
	for {
		before := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return page{}, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if innerStart >= 0 {
					return page{}, errors.New("more than one root element")
				}
				p.root = t.Copy()
				innerStart = int(dec.InputOffset())
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				p.inner = data[innerStart:before]
				return p, nil
			}
		}
	}
	if innerStart < 0 {
		return page{}, errors.New("no root element")
	}
	return page{}, errors.New("unterminated root element")
}

var encodingDecl = regexp.MustCompile(`^\s*<\?xml[^>]*encoding=["']([^"']+)["']`)

// toUTF8 re-encodes a document that declares a non-UTF-8 encoding.
func toUTF8(data []byte) ([]byte, error) {
	m := encodingDecl.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	label := strings.ToLower(string(m[1]))
	if label == "utf-8" || label == "utf8" {
		return data, nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", label, err)
	}
	return io.ReadAll(r)
}
