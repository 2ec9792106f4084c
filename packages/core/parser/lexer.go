package parser

import (
	"strings"

	"github.com/abdul-hamid-achik/reqline/packages/core/messages"
)

const (
	delimiter = '|'
	space     = " "
)

// Sectionize splits a statement on the pipe delimiter. Empty segments, as
// produced by adjacent delimiters or a delimiter at either end, are dropped.
func Sectionize(statement string) []Segment {
	texts := strings.FieldsFunc(statement, func(r rune) bool { return r == delimiter })

	segments := make([]Segment, len(texts))
	for i, text := range texts {
		segments[i] = Segment{Text: text, Index: i, Count: len(texts)}
	}
	return segments
}

// Clean checks the spacing of a segment against its neighbouring delimiters
// and returns its trimmed text.
//
// The first segment must not start with a space, every other segment must
// start with exactly one and every segment but the last must end with exactly
// one.
func Clean(seg Segment) (string, error) {
	text := seg.Text

	if seg.IsFirst() {
		if strings.HasPrefix(text, space) {
			return "", catalogError(KindSpacing, messages.InvalidPipeDelSpacing, seg.Index)
		}
	} else {
		if !strings.HasPrefix(text, space) {
			return "", catalogError(KindSpacing, messages.InvalidPipeDelSpacing, seg.Index)
		}
		if strings.HasPrefix(text, space+space) {
			return "", catalogError(KindSpacing, messages.MultipleSpacesFound, seg.Index)
		}
	}

	if !seg.IsLast() {
		if !strings.HasSuffix(text, space) {
			return "", catalogError(KindSpacing, messages.InvalidPipeDelSpacing, seg.Index)
		}
		if strings.HasSuffix(text, space+space) {
			return "", catalogError(KindSpacing, messages.MultipleSpacesFound, seg.Index)
		}
	}

	return strings.TrimSpace(text), nil
}
