package extract

import "context"

// Extractor is implemented by every document format the word counter supports.
type Extractor interface {
	Extract(ctx context.Context, job Job) (Result, error)
	SupportedTypes() []string
	SupportedExtensions() []string
	Name() string
	Label() string
	MaxFileSize() int64
}
