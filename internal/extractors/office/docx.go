package office

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/toricodesthings/officetools/internal/extract"
)

type DOCXExtractor struct {
	maxBytes int64
}

func NewDOCX(maxBytes int64) *DOCXExtractor {
	return &DOCXExtractor{maxBytes: maxBytes}
}

func (e *DOCXExtractor) Name() string       { return "document/docx" }
func (e *DOCXExtractor) Label() string      { return "Word" }
func (e *DOCXExtractor) MaxFileSize() int64 { return e.maxBytes }
func (e *DOCXExtractor) SupportedTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}
func (e *DOCXExtractor) SupportedExtensions() []string { return []string{".docx"} }

// Extract counts body paragraphs first and then every table cell, each one a
// preview segment.
func (e *DOCXExtractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
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

	body, err := readZipFile(&zr.Reader, "word/document.xml", defaultMaxZipEntryBytes)
	if err != nil {
		return extract.Result{}, err
	}

	paragraphs, tables, err := docxBlocks(body)
	if err != nil {
		return extract.Result{}, err
	}

	var tl extract.Tally
	for _, p := range paragraphs {
		tl.Add(p)
	}
	cells := 0
	for _, tbl := range tables {
		for _, row := range tbl {
			for _, cell := range row {
				tl.Add(cell)
				cells++
			}
		}
	}

	res := tl.Result(e, job, "native")
	res.Metadata = map[string]string{
		"paragraphs": strconv.Itoa(len(paragraphs)),
		"tables":     strconv.Itoa(len(tables)),
		"cells":      strconv.Itoa(cells),
	}
	return res, nil
}

// docxBlocks walks word/document.xml. Paragraphs nested in tables belong to
// their cell, not to the body paragraph list.
func docxBlocks(b []byte) (paragraphs []string, tables [][][]string, err error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	for {
		tok, tokErr := dec.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, nil, fmt.Errorf("word/document.xml: %w", tokErr)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "p":
			paragraphs = append(paragraphs, docxParagraph(dec))
		case "tbl":
			tables = append(tables, docxTable(dec))
		}
	}
	return paragraphs, tables, nil
}

// docxParagraph reads one <w:p> after its start element and returns the text
// of its runs. Tabs and breaks keep their whitespace meaning. Paragraph and
// run properties are skipped, since their tab stops are not text.
func docxParagraph(dec *xml.Decoder) string {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "pPr", "rPr":
				if err := dec.Skip(); err != nil {
					return sb.String()
				}
				depth--
			case "t":
				sb.WriteString(readCharData(dec))
				depth--
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
		}
	}
	return sb.String()
}

// docxTable reads one <w:tbl> and returns its rows of cell texts. Nested
// tables are flattened into the enclosing cell.
func docxTable(dec *xml.Decoder) [][]string {
	var rows [][]string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tr" {
				rows = append(rows, docxTableRow(dec))
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return rows
}

// docxTableRow reads one <w:tr>; each cell's paragraphs are joined by newlines.
func docxTableRow(dec *xml.Decoder) []string {
	var cells []string
	var paras []string
	inCell := false
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				if !inCell {
					inCell = true
					paras = nil
				}
				depth++
			case "p":
				paras = append(paras, docxParagraph(dec))
			default:
				depth++
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "tc" && depth == 1 && inCell {
				cells = append(cells, strings.Join(paras, "\n"))
				inCell = false
			}
		}
	}
	return cells
}

// readCharData reads the text of a leaf element and consumes its end tag.
func readCharData(dec *xml.Decoder) string {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return sb.String()
			}
			depth--
		}
	}
	return sb.String()
}
