package office

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toricodesthings/officetools/internal/extract"
	"github.com/xuri/excelize/v2"
)

func writeZip(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	for entry, content := range entries {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return p
}

const docxDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Hello world</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Tab</w:t><w:tab/><w:t>separated</w:t></w:r></w:p>
<w:tbl><w:tblPr/><w:tr><w:tc><w:tcPr/><w:p><w:r><w:t>cell one</w:t></w:r></w:p><w:p><w:r><w:t>second line</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>B</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>After table</w:t></w:r></w:p>
<w:sectPr/></w:body></w:document>`

func TestDOCXCountsParagraphsThenCells(t *testing.T) {
	p := writeZip(t, "sample.docx", map[string]string{"word/document.xml": docxDocument})

	e := NewDOCX(1 << 20)
	res, err := e.Extract(context.Background(), extract.Job{LocalPath: p, FileName: "sample.docx"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.WordCount != 11 {
		t.Fatalf("expected 11 words, got %d", res.WordCount)
	}
	want := "Hello world\nTab\tseparated\nAfter table\ncell one\nsecond line\nB\n"
	if res.Preview != want {
		t.Fatalf("unexpected preview:\n%q\nwant\n%q", res.Preview, want)
	}
	if res.Metadata["cells"] != "2" || res.Metadata["paragraphs"] != "3" {
		t.Fatalf("unexpected metadata %v", res.Metadata)
	}
	if res.Label != "Word" {
		t.Fatalf("unexpected label %q", res.Label)
	}
}

func TestDOCXRejectsNonZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fake.docx")
	if err := os.WriteFile(p, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewDOCX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p}); err == nil {
		t.Fatalf("expected error for corrupt docx")
	}
}

func TestDOCXRejectsMissingDocumentPart(t *testing.T) {
	p := writeZip(t, "empty.docx", map[string]string{"docProps/core.xml": "<x/>"})
	if _, err := NewDOCX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p}); err == nil {
		t.Fatalf("expected error for docx without word/document.xml")
	}
}

func TestDOCXIgnoresPropertyTabStops(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9000"/></w:tabs></w:pPr>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t>there</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	p := writeZip(t, "tabs.docx", map[string]string{"word/document.xml": doc})

	res, err := NewDOCX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p, FileName: "tabs.docx"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if want := "Hello\tthere\n"; res.Preview != want {
		t.Fatalf("unexpected preview %q, want %q", res.Preview, want)
	}
	if res.WordCount != 2 {
		t.Fatalf("expected 2 words, got %d", res.WordCount)
	}
}

func pptxSlide(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>` +
		body + `</p:spTree></p:cSld></p:sld>`
}

func TestPPTXCountsShapesInSlideOrder(t *testing.T) {
	p := writeZip(t, "deck.pptx", map[string]string{
		"ppt/presentation.xml": "<p:presentation/>",
		"ppt/slides/slide1.xml": pptxSlide(`<p:sp><p:nvSpPr/><p:txBody><a:bodyPr/>` +
			`<a:p><a:r><a:t>Title-case deck</a:t></a:r></a:p>` +
			`<a:p><a:r><a:t>Second</a:t></a:r><a:br/><a:r><a:t>line</a:t></a:r></a:p>` +
			`</p:txBody></p:sp><p:sp><p:spPr/></p:sp><p:pic/>`),
		"ppt/slides/slide10.xml":           pptxSlide(`<p:sp><p:txBody><a:p><a:r><a:t>ten</a:t></a:r></a:p></p:txBody></p:sp>`),
		"ppt/slides/slide2.xml":            pptxSlide(`<p:sp><p:txBody><a:p><a:fld type="slidenum"><a:t>2</a:t></a:fld></a:p></p:txBody></p:sp>`),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})

	res, err := NewPPTX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p, FileName: "deck.pptx"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.WordCount != 7 {
		t.Fatalf("expected 7 words, got %d", res.WordCount)
	}
	want := "Title-case deck\nSecond\nline\n2\nten\n"
	if res.Preview != want {
		t.Fatalf("unexpected preview:\n%q\nwant\n%q", res.Preview, want)
	}
	if res.Metadata["slides"] != "3" || res.Metadata["shapes"] != "3" {
		t.Fatalf("unexpected metadata %v", res.Metadata)
	}
}

func TestPPTXFollowsDeckOrder(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
		want    string
	}{
		{
			name: "presentation lists slide2 first",
			entries: map[string]string{
				"ppt/presentation.xml": `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
					`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
					`<p:sldIdLst><p:sldId id="256" r:id="rId3"/><p:sldId id="257" r:id="rId2"/></p:sldIdLst></p:presentation>`,
				"ppt/_rels/presentation.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
					`<Relationship Id="rId1" Type="slideMaster" Target="slideMasters/slideMaster1.xml"/>` +
					`<Relationship Id="rId2" Type="slide" Target="slides/slide1.xml"/>` +
					`<Relationship Id="rId3" Type="slide" Target="/ppt/slides/slide2.xml"/></Relationships>`,
				"ppt/slides/slide1.xml": pptxSlide(`<p:sp><p:txBody><a:p><a:r><a:t>moved</a:t></a:r></a:p></p:txBody></p:sp>`),
				"ppt/slides/slide2.xml": pptxSlide(`<p:sp><p:txBody><a:p><a:r><a:t>opening</a:t></a:r></a:p></p:txBody></p:sp>`),
				"ppt/slides/slide3.xml": pptxSlide(`<p:sp><p:txBody><a:p><a:r><a:t>orphan</a:t></a:r></a:p></p:txBody></p:sp>`),
			},
			want: "opening\nmoved\norphan\n",
		},
		{
			name: "missing relationships falls back to numeric order",
			entries: map[string]string{
				"ppt/presentation.xml": `<p:presentation xmlns:p="p" xmlns:r="r"><p:sldIdLst><p:sldId id="256" r:id="rId3"/></p:sldIdLst></p:presentation>`,
				"ppt/slides/slide2.xml": pptxSlide(`<p:sp><p:txBody><a:p><a:r><a:t>second</a:t></a:r></a:p></p:txBody></p:sp>`),
				"ppt/slides/slide1.xml": pptxSlide(`<p:sp><p:txBody><a:p><a:r><a:t>first</a:t></a:r></a:p></p:txBody></p:sp>`),
			},
			want: "first\nsecond\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeZip(t, "deck.pptx", tt.entries)
			res, err := NewPPTX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p, FileName: "deck.pptx"})
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if res.Preview != tt.want {
				t.Fatalf("unexpected preview %q, want %q", res.Preview, tt.want)
			}
		})
	}
}

func TestPPTXRejectsMalformedSlide(t *testing.T) {
	p := writeZip(t, "bad.pptx", map[string]string{
		"ppt/slides/slide1.xml": "<p:sld><p:sp><p:txBody>",
	})
	if _, err := NewPPTX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p}); err == nil {
		t.Fatalf("expected error for truncated slide xml")
	}
}

func TestXLSXCountsNonEmptyCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Project Alpha")
	_ = f.SetCellValue("Sheet1", "B2", 42)
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetCellValue("Notes", "A1", "three word note")

	p := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := NewXLSX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p, FileName: "book.xlsx"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.WordCount != 6 {
		t.Fatalf("expected 6 words, got %d", res.WordCount)
	}
	if res.Preview != "Project Alpha\n42\nthree word note\n" {
		t.Fatalf("unexpected preview %q", res.Preview)
	}
	if res.Metadata["sheets"] != "2" {
		t.Fatalf("unexpected metadata %v", res.Metadata)
	}
}

func TestXLSXRejectsCorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.xlsx")
	if err := os.WriteFile(p, []byte(strings.Repeat("x", 64)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewXLSX(1<<20).Extract(context.Background(), extract.Job{LocalPath: p}); err == nil {
		t.Fatalf("expected error for corrupt xlsx")
	}
}
