package extract

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupported = errors.New("unsupported file type")

type Registry struct {
	byMIME      map[string]Extractor
	byExtension map[string]Extractor
	extractors  []Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		byMIME:      make(map[string]Extractor),
		byExtension: make(map[string]Extractor),
		extractors:  make([]Extractor, 0),
	}
}

func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
	for _, mt := range e.SupportedTypes() {
		key := strings.ToLower(strings.TrimSpace(mt))
		if key != "" {
			r.byMIME[key] = e
		}
	}
	for _, ext := range e.SupportedExtensions() {
		key := strings.ToLower(strings.TrimSpace(ext))
		if key != "" {
			r.byExtension[key] = e
		}
	}
}

// Resolve picks the extractor by file extension. The MIME type is only a
// fallback for uploads that arrive without one.
func (r *Registry) Resolve(mimeType, extension string) (Extractor, error) {
	ext := strings.ToLower(strings.TrimSpace(extension))
	if ext != "" {
		if e, ok := r.byExtension[ext]; ok {
			return e, nil
		}
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupported, extension)
	}

	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i > 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if e, ok := r.byMIME[mt]; ok {
		return e, nil
	}

	return nil, fmt.Errorf("%w: mime=%q extension=%q", ErrUnsupported, mimeType, extension)
}

// Extensions lists every registered extension in registration order.
func (r *Registry) Extensions() []string {
	var out []string
	for _, e := range r.extractors {
		out = append(out, e.SupportedExtensions()...)
	}
	return out
}
