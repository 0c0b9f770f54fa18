package office

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/toricodesthings/officetools/internal/extract"
)

type PPTXExtractor struct {
	maxBytes int64
}

func NewPPTX(maxBytes int64) *PPTXExtractor {
	return &PPTXExtractor{maxBytes: maxBytes}
}

func (e *PPTXExtractor) Name() string       { return "document/pptx" }
func (e *PPTXExtractor) Label() string      { return "PPTX" }
func (e *PPTXExtractor) MaxFileSize() int64 { return e.maxBytes }
func (e *PPTXExtractor) SupportedTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.presentationml.presentation"}
}
func (e *PPTXExtractor) SupportedExtensions() []string { return []string{".pptx"} }

// Extract counts every text-bearing shape, slide by slide. Hyphens count as
// word separators, so "state-of-the-art" is four words.
func (e *PPTXExtractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	select {
	case <-ctx.Done():
		return extract.Result{Success: false}, ctx.Err()
	default:
	}

	zr, err := zip.OpenReader(job.LocalPath)
	if err != nil {
		return extract.Result{}, err
	}
	defer zr.Close()

	slides := slideEntries(&zr.Reader)
	if len(slides) == 0 {
		if _, err := readZipFile(&zr.Reader, "ppt/presentation.xml", defaultMaxZipEntryBytes); err != nil {
			return extract.Result{}, err
		}
	}

	var tl extract.Tally
	shapes := 0
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return extract.Result{}, err
		}
		b, err := readZipFile(&zr.Reader, s.name, defaultMaxZipEntryBytes)
		if err != nil {
			return extract.Result{}, err
		}
		texts, err := pptxShapeTexts(b)
		if err != nil {
			return extract.Result{}, fmt.Errorf("slide %d: %w", s.num, err)
		}
		for _, text := range texts {
			tl.AddCounted(text, strings.ReplaceAll(text, "-", " "))
			shapes++
		}
	}

	res := tl.Result(e, job, "native")
	res.Metadata = map[string]string{
		"slides": strconv.Itoa(len(slides)),
		"shapes": strconv.Itoa(shapes),
	}
	return res, nil
}

type slideEntry struct {
	name string
	num  int
}

// slideEntries lists the slides in deck order: the sldIdLst of
// ppt/presentation.xml resolved through its relationships part. Slides the
// deck does not reference, or every slide when either part is missing, follow
// in numeric order, so slide10 comes after slide9.
func slideEntries(zr *zip.Reader) []slideEntry {
	var numeric []slideEntry
	for _, f := range zr.File {
		rest, ok := strings.CutPrefix(f.Name, "ppt/slides/slide")
		if !ok {
			continue
		}
		numStr, ok := strings.CutSuffix(rest, ".xml")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		numeric = append(numeric, slideEntry{name: f.Name, num: n})
	}
	sort.Slice(numeric, func(i, j int) bool { return numeric[i].num < numeric[j].num })

	order := deckOrder(zr)
	if len(order) == 0 {
		return numeric
	}

	byName := make(map[string]slideEntry, len(numeric))
	for _, s := range numeric {
		byName[s.name] = s
	}
	out := make([]slideEntry, 0, len(numeric))
	for _, name := range order {
		if s, ok := byName[name]; ok {
			out = append(out, s)
			delete(byName, name)
		}
	}
	for _, s := range numeric {
		if _, ok := byName[s.name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// deckOrder returns the zip names of the slides listed in the presentation's
// sldIdLst. It returns nil when the list or its relationships cannot be read.
func deckOrder(zr *zip.Reader) []string {
	pres, err := readZipFile(zr, "ppt/presentation.xml", defaultMaxZipEntryBytes)
	if err != nil {
		return nil
	}
	rels, err := readZipFile(zr, "ppt/_rels/presentation.xml.rels", defaultMaxZipEntryBytes)
	if err != nil {
		return nil
	}

	targets := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(rels))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id == "" || target == "" {
			continue
		}
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("ppt", target)
		}
		targets[id] = target
	}

	var order []string
	dec = xml.NewDecoder(bytes.NewReader(pres))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		// sldId carries a numeric id too; the relationship id is the
		// namespaced one.
		for _, a := range se.Attr {
			if a.Name.Local == "id" && a.Name.Space != "" {
				if target, ok := targets[a.Value]; ok {
					order = append(order, target)
				}
			}
		}
	}
	return order
}

// pptxShapeTexts returns the text of every <p:sp> that has a text body. A
// shape's text is its paragraphs joined by newlines.
func pptxShapeTexts(b []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	var texts []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sp" {
			continue
		}
		if text, hasBody := pptxShape(dec); hasBody {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

func pptxShape(dec *xml.Decoder) (string, bool) {
	var paras []string
	hasBody := false
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txBody":
				hasBody = true
				depth++
			case "p":
				paras = append(paras, pptxParagraph(dec))
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return strings.Join(paras, "\n"), hasBody
}

// pptxParagraph reads one <a:p>; runs and fields are concatenated and line
// breaks become newlines.
func pptxParagraph(dec *xml.Decoder) string {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				sb.WriteString(readCharData(dec))
			case "br":
				sb.WriteByte('\n')
				depth++
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return sb.String()
}
