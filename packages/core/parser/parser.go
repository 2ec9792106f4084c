package parser

import (
	"strings"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/messages"
)

// Parse validates a reqline statement and returns the request it describes.
//
// Segments are checked one at a time in statement order, so a defect in an
// early segment is reported even when a later one is also broken. Required
// keywords are only checked once every segment has passed.
func Parse(statement string) (*Request, error) {
	if statement == "" {
		return nil, &Error{
			Kind:    KindEmptyStatement,
			Message: "Invalid reqline statement",
			Segment: -1,
		}
	}

	segments := Sectionize(statement)
	sections := make([]Section, 0, len(segments))

	for _, seg := range segments {
		clean, err := Clean(seg)
		if err != nil {
			return nil, err
		}

		section, err := parseSection(clean, seg.Index)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	folded, err := Fold(sections...)
	if err != nil {
		return nil, err
	}

	return Build(folded), nil
}

// ParseSection splits a cleaned segment into its keyword and value and
// validates both.
func ParseSection(clean string) (Section, error) {
	return parseSection(clean, -1)
}

func parseSection(clean string, index int) (Section, error) {
	spaceIndex := strings.Index(clean, space)
	if spaceIndex == -1 {
		return Section{}, catalogError(KindMissingSpace, messages.MissingSpaceAfterKeyword, index)
	}

	word := clean[:spaceIndex]
	value := clean[spaceIndex+1:]

	upper := strings.ToUpper(word)
	if word != upper {
		if _, ok := LookupKeyword(upper); ok {
			return Section{}, catalogError(KindCase, messages.KeywordsMustBeUppercase, index)
		}
	}

	keyword, ok := LookupKeyword(word)
	if !ok {
		return Section{}, unknownKeywordError(word, index)
	}

	if strings.HasPrefix(value, space) {
		return Section{}, catalogError(KindSpacing, messages.MultipleSpacesFound, index)
	}

	section := Section{Keyword: keyword, Raw: value}

	switch {
	case keyword == KeywordHTTP:
		if !IsMethod(value) {
			if IsMethod(strings.ToUpper(value)) {
				return Section{}, catalogError(KindCase, messages.MethodMustBeUppercase, index)
			}
			return Section{}, catalogError(KindInvalidMethod, messages.InvalidHTTPMethod, index)
		}
	case keyword.IsOptional():
		parsed, err := jsonvalue.Parse(value)
		if err != nil {
			return Section{}, invalidJSONError(keyword, index)
		}
		section.Value = parsed
	}

	return section, nil
}

// Fold collects sections into a Sections, later sections replacing earlier
// ones with the same keyword, then checks that HTTP and URL are present.
func Fold(sections ...Section) (Sections, error) {
	var folded Sections
	for _, s := range sections {
		folded.Set(s)
	}

	if !folded.Has(KeywordHTTP) {
		return Sections{}, catalogError(KindMissingKeyword, messages.MissingHTTP, -1)
	}
	if !folded.Has(KeywordURL) {
		return Sections{}, catalogError(KindMissingKeyword, messages.MissingURL, -1)
	}

	return folded, nil
}
