package plaintext

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/toricodesthings/officetools/internal/extract"
)

// Extractor counts a UTF-8 text file as a single preview segment.
type Extractor struct {
	maxBytes int64
}

func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Name() string { return "text/plain" }

func (e *Extractor) Label() string { return "TXT" }

func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }

func (e *Extractor) SupportedTypes() []string {
	return []string{"text/plain"}
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt"}
}

func (e *Extractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	select {
	case <-ctx.Done():
		return extract.Result{Success: false}, ctx.Err()
	default:
	}

	b, err := os.ReadFile(job.LocalPath)
	if err != nil {
		return extract.Result{}, err
	}
	if !utf8.Valid(b) {
		return extract.Result{}, fmt.Errorf("file is not valid UTF-8")
	}

	var tl extract.Tally
	tl.Add(string(b))
	return tl.Result(e, job, "native"), nil
}
