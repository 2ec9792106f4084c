// Package parser turns a reqline statement into a request descriptor.
//
// A statement is a single line of pipe delimited sections:
//
//	HTTP GET | URL https://example.com | HEADERS {"Accept": "application/json"} | QUERY {"page": 1}
//
// Each section is a keyword, one space and a value. HTTP and URL are required,
// HEADERS, QUERY and BODY are optional and hold JSON text.
//
// The parser handles, in order:
//   - Splitting the statement into segments on '|'
//   - Checking the spacing around every delimiter
//   - Splitting each segment into keyword and value and validating both
//   - Checking that the required keywords are present
//   - Building the descriptor, including the full URL with its query string
//
// The first failing check ends the parse with an *Error. No partial
// descriptor is ever returned.
package parser
