package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/toricodesthings/officetools/internal/extract"
)

func TestExtractCountsWholeFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(p, []byte("one two\nthree\tfour  five\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := New(1<<20).Extract(context.Background(), extract.Job{LocalPath: p, FileName: "notes.txt"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.WordCount != 5 {
		t.Fatalf("expected 5 words, got %d", res.WordCount)
	}
	if res.Preview != "one two\nthree\tfour  five\n\n" {
		t.Fatalf("unexpected preview %q", res.Preview)
	}
	if res.Label != "TXT" || res.Segments != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExtractRejectsInvalidUTF8(t *testing.T) {
	p := filepath.Join(t.TempDir(), "latin1.txt")
	if err := os.WriteFile(p, []byte{'c', 'a', 'f', 0xe9}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(1<<20).Extract(context.Background(), extract.Job{LocalPath: p}); err == nil {
		t.Fatalf("expected UTF-8 error")
	}
}
