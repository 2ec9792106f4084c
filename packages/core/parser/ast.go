package parser

import "github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"

// Keyword is a section label.
type Keyword string

const (
	KeywordHTTP    Keyword = "HTTP"
	KeywordURL     Keyword = "URL"
	KeywordHeaders Keyword = "HEADERS"
	KeywordQuery   Keyword = "QUERY"
	KeywordBody    Keyword = "BODY"
)

// Supported HTTP methods.
const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

var (
	requiredKeywords = []Keyword{KeywordHTTP, KeywordURL}
	optionalKeywords = []Keyword{KeywordHeaders, KeywordQuery, KeywordBody}
	validMethods     = []string{MethodGet, MethodPost}
)

// Keywords returns all recognised keywords, required ones first.
func Keywords() []Keyword {
	all := make([]Keyword, 0, len(requiredKeywords)+len(optionalKeywords))
	all = append(all, requiredKeywords...)
	return append(all, optionalKeywords...)
}

// LookupKeyword reports whether text is a keyword, matching case exactly.
func LookupKeyword(text string) (Keyword, bool) {
	for _, kw := range Keywords() {
		if string(kw) == text {
			return kw, true
		}
	}
	return "", false
}

// IsOptional reports whether k carries a JSON value.
func (k Keyword) IsOptional() bool {
	for _, kw := range optionalKeywords {
		if kw == k {
			return true
		}
	}
	return false
}

// IsMethod reports whether text is one of the supported HTTP methods.
func IsMethod(text string) bool {
	for _, m := range validMethods {
		if m == text {
			return true
		}
	}
	return false
}

// Segment is one pipe delimited unit of a statement, before cleaning.
type Segment struct {
	Text  string // Raw text, delimiters excluded
	Index int    // Position in the statement (0 indexed)
	Count int    // Total number of segments in the statement
}

// IsFirst reports whether s is the first segment.
func (s Segment) IsFirst() bool { return s.Index == 0 }

// IsLast reports whether s is the last segment.
func (s Segment) IsLast() bool { return s.Index == s.Count-1 }

// Section is a keyword and its value as parsed from one segment.
type Section struct {
	Keyword Keyword
	Raw     string          // Value text exactly as written
	Value   jsonvalue.Value // Parsed value, only set for optional keywords
}

// Sections is the fold of every section of a statement. Later sections
// replace earlier ones with the same keyword.
type Sections struct {
	Method  string
	URL     string
	Headers *jsonvalue.Value
	Query   *jsonvalue.Value
	Body    *jsonvalue.Value
	present map[Keyword]bool
}

// Set folds s into the sections.
func (ss *Sections) Set(s Section) {
	if ss.present == nil {
		ss.present = make(map[Keyword]bool)
	}
	ss.present[s.Keyword] = true

	value := s.Value
	switch s.Keyword {
	case KeywordHTTP:
		ss.Method = s.Raw
	case KeywordURL:
		ss.URL = s.Raw
	case KeywordHeaders:
		ss.Headers = &value
	case KeywordQuery:
		ss.Query = &value
	case KeywordBody:
		ss.Body = &value
	}
}

// Has reports whether a section with keyword k has been folded in.
func (ss *Sections) Has(k Keyword) bool {
	return ss.present[k]
}

// Request is the validated description of the HTTP request to execute.
type Request struct {
	Method  string          `json:"method"`
	URL     string          `json:"url"`
	Headers jsonvalue.Value `json:"headers"`
	Query   jsonvalue.Value `json:"query"`
	Body    jsonvalue.Value `json:"body"`
	FullURL string          `json:"fullUrl"`
}

// Equal reports whether r and other describe the same request.
func (r *Request) Equal(other *Request) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Method == other.Method &&
		r.URL == other.URL &&
		r.FullURL == other.FullURL &&
		r.Headers.Equal(other.Headers) &&
		r.Query.Equal(other.Query) &&
		r.Body.Equal(other.Body)
}
