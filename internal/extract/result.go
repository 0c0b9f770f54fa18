package extract

import (
	"strings"
	"unicode"
)

// PreviewChars is how much of each paragraph, cell, shape or page is shown.
const PreviewChars = 300

type Job struct {
	LocalPath string
	FileName  string
	MIMEType  string
	FileSize  int64
}

type Result struct {
	Success   bool              `json:"success"`
	FileType  string            `json:"fileType"`
	Label     string            `json:"label"`
	Method    string            `json:"method,omitempty"`
	MIMEType  string            `json:"mimeType,omitempty"`
	WordCount int               `json:"wordCount"`
	CharCount int               `json:"charCount"`
	Segments  int               `json:"segments"`
	Preview   string            `json:"preview"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Error     *string           `json:"error,omitempty"`
}

// CountWords counts whitespace-delimited tokens.
func CountWords(text string) int {
	words, _ := BuildCounts(text)
	return words
}

func BuildCounts(text string) (wordCount int, charCount int) {
	inWord := false
	for _, r := range text {
		charCount++
		if unicode.IsSpace(r) {
			if inWord {
				wordCount++
				inWord = false
			}
			continue
		}
		inWord = true
	}
	if inWord {
		wordCount++
	}
	return
}

// Tally accumulates counts and the preview across the text segments of one
// document (paragraphs, cells, shapes or pages).
type Tally struct {
	words    int
	chars    int
	segments int
	preview  strings.Builder
}

// Add counts text and appends its head to the preview.
func (t *Tally) Add(text string) {
	t.AddCounted(text, text)
}

// AddCounted previews text but counts words in countText. Formats that
// normalize separators before counting use it.
func (t *Tally) AddCounted(text, countText string) {
	w, _ := BuildCounts(countText)
	_, c := BuildCounts(text)
	t.words += w
	t.chars += c
	t.segments++
	t.preview.WriteString(truncateRunes(text, PreviewChars))
	t.preview.WriteByte('\n')
}

func (t *Tally) WordCount() int  { return t.words }
func (t *Tally) Preview() string { return t.preview.String() }

// Result fills the counting fields of a successful extraction.
func (t *Tally) Result(e Extractor, job Job, method string) Result {
	return Result{
		Success:   true,
		FileType:  e.Name(),
		Label:     e.Label(),
		Method:    method,
		MIMEType:  job.MIMEType,
		WordCount: t.words,
		CharCount: t.chars,
		Segments:  t.segments,
		Preview:   t.preview.String(),
	}
}

// Failed builds the inline error result for a handler failure: zero words and
// the error text in place of the preview.
func Failed(e Extractor, job Job, err error) Result {
	msg := e.Label() + " processing failed: " + err.Error()
	return Result{
		Success:  false,
		FileType: e.Name(),
		Label:    e.Label(),
		MIMEType: job.MIMEType,
		Preview:  msg,
		Error:    &msg,
	}
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
