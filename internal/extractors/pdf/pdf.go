package pdf

import (
	"context"
	"strconv"

	"github.com/toricodesthings/officetools/internal/extract"
)

// PageSource returns the plain text of every page, in order.
type PageSource interface {
	Pages(ctx context.Context, path string) ([]string, error)
	Method() string
}

type Extractor struct {
	source   PageSource
	maxBytes int64
}

func New(source PageSource, maxBytes int64) *Extractor {
	return &Extractor{source: source, maxBytes: maxBytes}
}

func (e *Extractor) Name() string { return "document/pdf" }

func (e *Extractor) Label() string { return "PDF" }

func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }

func (e *Extractor) SupportedTypes() []string {
	return []string{"application/pdf"}
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract treats each page as one preview segment.
func (e *Extractor) Extract(ctx context.Context, job extract.Job) (extract.Result, error) {
	pages, err := e.source.Pages(ctx, job.LocalPath)
	if err != nil {
		return extract.Result{}, err
	}

	var tl extract.Tally
	for _, text := range pages {
		tl.Add(text)
	}

	res := tl.Result(e, job, e.source.Method())
	res.Metadata = map[string]string{"pages": strconv.Itoa(len(pages))}
	return res, nil
}
