// Package backend defines the identity of a downstream service instance.
// A Backend is addressed by a fixed base URL and is immutable once the
// backend set has been constructed.
package backend
