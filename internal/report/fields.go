package report

import (
	"regexp"
	"strconv"
)

// summaryToken matches the "[<count> <language>]" convention, e.g. "[120 EN]".
// RE2's \s is ASCII only, so Unicode separators such as NBSP and the
// ideographic space are added explicitly.
var summaryToken = regexp.MustCompile(`\[(\d+)[\s\p{Z}]+([A-Za-z]+)\]`)

// ExtractSummaryFields pulls the word count and source language out of the
// first bracketed token in a summary. A nil summary or one without a token
// yields (nil, nil). A digit run too large for int64 yields a nil count but
// keeps the language.
func ExtractSummaryFields(summary *string) (wordCount *int64, language *string) {
	if summary == nil {
		return nil, nil
	}
	m := summaryToken.FindStringSubmatch(*summary)
	if m == nil {
		return nil, nil
	}
	lang := m[2]
	if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
		wordCount = &n
	}
	return wordCount, &lang
}
