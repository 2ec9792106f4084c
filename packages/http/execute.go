package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
)

// ErrExecution matches every ExecutionError via errors.Is.
var ErrExecution = errors.New("reqline execution error")

// ExecutionError reports a request that could not be completed, either
// because the transport failed or because the response status was rejected.
type ExecutionError struct {
	Method     string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *ExecutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
	}
	if e.Err == nil {
		return "request failed"
	}
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// Envelope is the result of executing a request descriptor.
type Envelope struct {
	Request  EnvelopeRequest  `json:"request"`
	Response EnvelopeResponse `json:"response"`
}

// EnvelopeRequest echoes the descriptor that was executed.
type EnvelopeRequest struct {
	Query   jsonvalue.Value `json:"query"`
	Body    jsonvalue.Value `json:"body"`
	Headers jsonvalue.Value `json:"headers"`
	FullURL string          `json:"full_url"`
}

// EnvelopeResponse carries the status, timing and payload of the exchange.
// Timestamps are Unix epoch milliseconds.
type EnvelopeResponse struct {
	HTTPStatus            int             `json:"http_status"`
	Duration              int64           `json:"duration"`
	RequestStartTimestamp int64           `json:"request_start_timestamp"`
	RequestStopTimestamp  int64           `json:"request_stop_timestamp"`
	ResponseData          jsonvalue.Value `json:"response_data"`
}

// Execute issues the call described by desc and returns its envelope.
func (c *Client) Execute(ctx context.Context, desc *parser.Request) (*Envelope, error) {
	req, err := BuildRequest(desc)
	if err != nil {
		return nil, &ExecutionError{Method: desc.Method, URL: desc.URL, Err: err}
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "url", req.URL, "error", err)
		return nil, &ExecutionError{Method: req.Method, URL: req.URL, Err: err}
	}

	if c.failOnStatus && !resp.IsSuccess() {
		return nil, &ExecutionError{Method: req.Method, URL: req.URL, StatusCode: resp.StatusCode}
	}

	return &Envelope{
		Request: EnvelopeRequest{
			Query:   desc.Query,
			Body:    desc.Body,
			Headers: desc.Headers,
			FullURL: desc.FullURL,
		},
		Response: EnvelopeResponse{
			HTTPStatus:            resp.StatusCode,
			Duration:              resp.DurationMs(),
			RequestStartTimestamp: resp.Start.UnixMilli(),
			RequestStopTimestamp:  resp.Stop.UnixMilli(),
			ResponseData:          resp.Data(),
		},
	}, nil
}
