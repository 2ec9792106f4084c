// Package jsonvalue provides an ordered JSON value used for the HEADERS,
// QUERY and BODY sections of a reqline statement and for response payloads.
//
// Unlike map[string]any, a Value keeps object members in the order they were
// written. That order is observable: it decides the order of the pairs in a
// request's full URL.
//
// Values are immutable once built. Parse builds one from JSON text, the New*
// constructors build them directly.
package jsonvalue
