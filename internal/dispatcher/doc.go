// Package dispatcher forwards a request to a backend chosen by a Selector,
// retrying on other candidates when a forward fails.
//
// A forward fails when the backend cannot be reached within the per-attempt
// timeout or answers with anything other than 200 OK. The dispatcher never
// returns an error: every outcome is either the backend's 200 response or a
// 503 with an empty body.
package dispatcher
