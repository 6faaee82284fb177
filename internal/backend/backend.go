package backend

import (
	"fmt"
	"net/url"
)

// Backend represents a downstream service instance addressed by its base URL.
type Backend struct {
	url *url.URL
	key string
}

// New creates a Backend for the given base URL.
func New(u *url.URL) *Backend {
	cp := *u
	return &Backend{
		url: &cp,
		key: cp.String(),
	}
}

// Parse parses rawURL and returns a Backend for it. Only absolute http and
// https URLs with a host are accepted.
func Parse(rawURL string) (*Backend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", rawURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", rawURL)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("backend url %q: missing host", rawURL)
	}

	return New(u), nil
}

// ParseAll parses every URL in rawURLs, preserving order.
func ParseAll(rawURLs []string) ([]*Backend, error) {
	backends := make([]*Backend, 0, len(rawURLs))
	for _, raw := range rawURLs {
		b, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}

	return backends, nil
}

// URL returns a copy of the backend base URL.
func (b *Backend) URL() *url.URL {
	cp := *b.url
	return &cp
}

// Key returns the string form of the base URL. It identifies the backend
// in caches, logs and metrics.
func (b *Backend) Key() string {
	return b.key
}

func (b *Backend) String() string {
	return b.key
}

// Endpoint resolves an absolute path against the backend base URL.
// Any path on the base URL is replaced, not joined.
func (b *Backend) Endpoint(path string) *url.URL {
	return b.url.ResolveReference(&url.URL{Path: path})
}
