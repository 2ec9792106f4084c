// Package messages holds the canonical reqline error catalog. Each code maps
// to one fixed, client visible message.
package messages

// Code identifies an entry of the catalog.
type Code string

const (
	InvalidPipeDelSpacing    Code = "INVALID_PIPE_DEL_SPACING"
	MultipleSpacesFound      Code = "MULTIPLE_SPACES_FOUND"
	MissingHTTP              Code = "MISSING_HTTP"
	MissingURL               Code = "MISSING_URL"
	MissingSpaceAfterKeyword Code = "MISSING_SPACE_AFTER_KEYWORD"
	KeywordsMustBeUppercase  Code = "KEYWORDS_MUST_BE_UPPERCASE"
	MethodMustBeUppercase    Code = "METHOD_MUST_BE_UPPERCASE"
	InvalidHTTPMethod        Code = "INVALID_HTTP_METHOD"
)

var catalog = map[Code]string{
	InvalidPipeDelSpacing:    "Invalid spacing around pipe delimiter",
	MultipleSpacesFound:      "Multiple spaces found where single space expected",
	MissingHTTP:              "Missing required HTTP keyword",
	MissingURL:               "Missing required URL keyword",
	MissingSpaceAfterKeyword: "Missing space after keyword",
	KeywordsMustBeUppercase:  "Keywords must be uppercase",
	MethodMustBeUppercase:    "HTTP method must be uppercase",
	InvalidHTTPMethod:        "Invalid HTTP method. Only GET and POST are supported",
}

// Text returns the message for code. Unknown codes return the code itself.
func (c Code) Text() string {
	if text, ok := catalog[c]; ok {
		return text
	}
	return string(c)
}

// Lookup returns the message for code and whether code is in the catalog.
func Lookup(code Code) (string, bool) {
	text, ok := catalog[code]
	return text, ok
}

// Codes returns every code of the catalog in declaration order.
func Codes() []Code {
	return []Code{
		InvalidPipeDelSpacing,
		MultipleSpacesFound,
		MissingHTTP,
		MissingURL,
		MissingSpaceAfterKeyword,
		KeywordsMustBeUppercase,
		MethodMustBeUppercase,
		InvalidHTTPMethod,
	}
}
