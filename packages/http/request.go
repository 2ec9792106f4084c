package http

import (
	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte

	// ContentType is applied when Headers carries no Content-Type.
	ContentType string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

// BuildRequest shapes the outbound call for a parsed descriptor.
//
// The call targets desc.URL; the query only appears in the echoed full URL.
// Object valued headers are sent with every value converted to text. A body
// is attached to POST requests only, and only when it has at least one key.
// A string body goes out as its raw text with no default Content-Type; any
// other body is encoded as JSON.
func BuildRequest(desc *parser.Request) (*Request, error) {
	r := NewRequest(desc.Method, desc.URL)

	if desc.Headers.Kind() == jsonvalue.Object {
		for _, m := range desc.Headers.Members() {
			r.SetHeader(m.Key, m.Value.String())
		}
	}

	if desc.Method != parser.MethodPost || len(desc.Body.Keys()) == 0 {
		return r, nil
	}

	if desc.Body.Kind() == jsonvalue.String {
		r.SetBody([]byte(desc.Body.Str()))
		return r, nil
	}

	body, err := desc.Body.MarshalJSON()
	if err != nil {
		return nil, err
	}
	r.SetBody(body)
	r.ContentType = "application/json"

	return r, nil
}
