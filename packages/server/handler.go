package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Client visible messages for payloads rejected before parsing.
const (
	msgInvalidJSON     = "Invalid JSON body"
	msgMissingReqline  = "Missing reqline parameter"
	msgInvalidReqline  = "Invalid reqline statement"
	msgBodyTooLarge    = "Request body too large"
	msgTooManyRequests = "Too many requests"
)

const payloadSchema = `{
	"type": "object",
	"required": ["reqline"],
	"properties": {
		"reqline": {"type": "string", "minLength": 1}
	}
}`

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleReqline(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		s.writeError(w, r, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	statement, msg := s.readStatement(body)
	if msg != "" {
		s.writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	result, err := s.runner.Run(r.Context(), statement)
	if err != nil {
		s.logger.Warn("statement rejected",
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, r, http.StatusCreated, result.Envelope)
}

// readStatement extracts the statement from a POST body. On failure it
// returns the message to send back.
func (s *Server) readStatement(body []byte) (string, string) {
	if !gjson.ValidBytes(body) {
		return "", msgInvalidJSON
	}

	field := gjson.GetBytes(body, "reqline")
	if !field.Exists() || !truthy(field) {
		return "", msgMissingReqline
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil || !result.Valid() {
		return "", msgInvalidReqline
	}

	return field.String(), ""
}

// truthy reports whether a JSON value would pass an `if (value)` check.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Float() != 0
	case gjson.String:
		return r.Str != ""
	default:
		return true
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, errorBody{Error: true, Message: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		s.logger.Error("failed to write response",
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
}
