// Package http executes reqline request descriptors.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts, proxy and TLS verification
//   - Redirect handling
//   - Request building from a parsed descriptor
//   - Response envelopes with epoch millisecond timing
//
// By default a non-2xx status is reported as an ExecutionError.
// WithFailOnStatus(false) returns the envelope instead.
package http
