package parser

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/reqline/packages/core/messages"
)

// ErrParse matches every error returned by this package via errors.Is.
var ErrParse = errors.New("reqline parse error")

// ErrorKind classifies a parse error.
type ErrorKind int

const (
	KindEmptyStatement ErrorKind = iota
	KindSpacing
	KindCase
	KindMissingSpace
	KindUnknownKeyword
	KindMissingKeyword
	KindInvalidMethod
	KindInvalidJSON
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmptyStatement:
		return "EmptyStatement"
	case KindSpacing:
		return "SpacingError"
	case KindCase:
		return "CaseError"
	case KindMissingSpace:
		return "MissingSpaceError"
	case KindUnknownKeyword:
		return "UnknownKeywordError"
	case KindMissingKeyword:
		return "MissingRequiredKeywordError"
	case KindInvalidMethod:
		return "InvalidMethodError"
	case KindInvalidJSON:
		return "InvalidJsonError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a reqline syntax error.
type Error struct {
	Kind    ErrorKind
	Code    messages.Code // Catalog code, empty for messages built on the fly
	Message string        // Client visible text
	Segment int           // Index of the offending segment, -1 when not tied to one
}

// Error returns the client visible message.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is ErrParse.
func (e *Error) Is(target error) bool {
	return target == ErrParse
}

func catalogError(kind ErrorKind, code messages.Code, segment int) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: code.Text(),
		Segment: segment,
	}
}

func unknownKeywordError(keyword string, segment int) *Error {
	return &Error{
		Kind:    KindUnknownKeyword,
		Message: "Unknown keyword: " + keyword,
		Segment: segment,
	}
}

func invalidJSONError(keyword Keyword, segment int) *Error {
	return &Error{
		Kind:    KindInvalidJSON,
		Message: fmt.Sprintf("Invalid JSON format in %s section", keyword),
		Segment: segment,
	}
}

// CodeOf returns the catalog code carried by err, if any.
func CodeOf(err error) (messages.Code, bool) {
	var perr *Error
	if !errors.As(err, &perr) || perr.Code == "" {
		return "", false
	}
	return perr.Code, true
}
