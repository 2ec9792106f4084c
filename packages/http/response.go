package http

import (
	"time"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Start      time.Time
	Stop       time.Time
	Duration   time.Duration
}

// Data returns the payload as JSON when it parses, otherwise as a string
// holding the raw text.
func (r *Response) Data() jsonvalue.Value {
	if v, err := jsonvalue.ParseBytes(r.Body); err == nil {
		return v
	}
	return jsonvalue.NewString(string(r.Body))
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) DurationMs() int64 {
	return r.Stop.UnixMilli() - r.Start.UnixMilli()
}
