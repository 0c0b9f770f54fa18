package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/toricodesthings/officetools/internal/extract"
)

type fakeSource struct {
	pages []string
	err   error
}

func (f fakeSource) Pages(ctx context.Context, path string) ([]string, error) { return f.pages, f.err }
func (f fakeSource) Method() string                                           { return "fake" }

func TestExtractorOneSegmentPerPage(t *testing.T) {
	e := New(fakeSource{pages: []string{"first page text", "", strings.Repeat("a", 400)}}, 1<<20)

	res, err := e.Extract(context.Background(), extract.Job{FileName: "doc.pdf"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.WordCount != 4 {
		t.Fatalf("expected 4 words, got %d", res.WordCount)
	}
	want := "first page text\n\n" + strings.Repeat("a", extract.PreviewChars) + "\n"
	if res.Preview != want {
		t.Fatalf("unexpected preview %q", res.Preview)
	}
	if res.Metadata["pages"] != "3" || res.Method != "fake" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExtractorPropagatesSourceError(t *testing.T) {
	e := New(fakeSource{err: errors.New("broken")}, 1<<20)
	if _, err := e.Extract(context.Background(), extract.Job{}); err == nil {
		t.Fatalf("expected error")
	}
}

func buildTextPDF(pages ...string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	n := 3 + 2*len(pages)
	offsets := make([]int, n+1)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")

	for i, text := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i
		stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + text + ") Tj\nET"

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", pageObj, contentObj)

		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", n+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", n+1, xref)
	return []byte(b.String())
}

func TestNativeReadsPages(t *testing.T) {
	p := filepath.Join(t.TempDir(), "two.pdf")
	if err := os.WriteFile(p, buildTextPDF("Hello world", "Second page"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pages, err := Native{}.Pages(context.Background(), p)
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[0], "Hello") {
		t.Fatalf("expected first page text, got %q", pages[0])
	}
}

func TestNativeRejectsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "junk.pdf")
	if err := os.WriteFile(p, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := (Native{}).Pages(context.Background(), p); err == nil {
		t.Fatalf("expected error for non-PDF input")
	}
}

func TestParsePages(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"Title: x\nPages:          12\nEncrypted: no\n", 12, false},
		{"pages: 3 (padded)\n", 3, false},
		{"Producer: x\n", 0, true},
		{"Pages: 999999\n", 0, true},
	}
	for _, c := range cases {
		got, err := parsePages(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("parsePages(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("parsePages(%q) = %d, %v; want %d", c.in, got, err, c.want)
		}
	}
}

func TestClassifyPopplerStderr(t *testing.T) {
	p := Poppler{}.withDefaults()
	ctx := context.Background()
	base := errors.New("exit status 1")

	cases := map[string]string{
		"Command Line Error: Incorrect password": "password protected",
		"Syntax Error: Couldn't find trailer":    "damaged",
		"I/O Error: Couldn't open file 'x.pdf'":  "unable to open",
		"pdftotext version 22\nUsage: pdftotext": "bad invocation",
		"something odd":                          "something odd",
	}
	for stderr, want := range cases {
		err := p.classify("pdftotext", base, ctx, stderr, 2)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("classify(%q) = %v, want substring %q", stderr, err, want)
		}
	}

	if err := p.classify("pdfinfo", exec.ErrNotFound, ctx, "", 0); !strings.Contains(err.Error(), "not installed") {
		t.Fatalf("expected not-installed error, got %v", err)
	}
}

func fakePoppler(t *testing.T, pdfinfo, pdftotext string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	dir := t.TempDir()
	for name, body := range map[string]string{"pdfinfo": pdfinfo, "pdftotext": pdftotext} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body), 0o755); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestPopplerPagesInOrder(t *testing.T) {
	fakePoppler(t, "echo 'Pages:          5'\n", "echo \"page $2 text\"\n")

	pages, err := Poppler{Workers: 3}.Pages(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 5 {
		t.Fatalf("expected 5 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if want := fmt.Sprintf("page %d text\n", i+1); p != want {
			t.Fatalf("page %d = %q, want %q", i+1, p, want)
		}
	}
}

func TestPopplerEncrypted(t *testing.T) {
	fakePoppler(t, "printf 'Encrypted:      yes (print:yes)\\nPages: 1\\n'\n", "echo x\n")
	if _, err := (Poppler{}).Pages(context.Background(), "doc.pdf"); err == nil || !strings.Contains(err.Error(), "password") {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestPopplerPageFailure(t *testing.T) {
	fakePoppler(t, "echo 'Pages: 2'\n", "echo 'Syntax Error: Couldn'\"'\"'t find trailer dictionary' >&2\nexit 1\n")
	if _, err := (Poppler{}).Pages(context.Background(), "doc.pdf"); err == nil || !strings.Contains(err.Error(), "damaged") {
		t.Fatalf("expected damaged error, got %v", err)
	}
}
