package parser

import (
	"strings"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
)

// Build assembles the request descriptor from folded sections. Optional
// sections that are absent, or hold null, false, 0 or "", become {}.
func Build(ss Sections) *Request {
	query := orEmptyObject(ss.Query)

	return &Request{
		Method:  ss.Method,
		URL:     ss.URL,
		Headers: orEmptyObject(ss.Headers),
		Query:   query,
		Body:    orEmptyObject(ss.Body),
		FullURL: FullURL(ss.URL, query),
	}
}

// FullURL appends query to url as a percent encoded query string. Pairs are
// written in key order; url is returned unchanged when query has no keys.
func FullURL(url string, query jsonvalue.Value) string {
	keys := query.Keys()
	if len(keys) == 0 {
		return url
	}

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		value, _ := query.Index(key)
		pairs = append(pairs, jsonvalue.PercentEncode(key)+"="+jsonvalue.PercentEncode(value.String()))
	}

	return url + "?" + strings.Join(pairs, "&")
}

func orEmptyObject(v *jsonvalue.Value) jsonvalue.Value {
	if v == nil || !v.Truthy() {
		return jsonvalue.EmptyObject()
	}
	return *v
}
