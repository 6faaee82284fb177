// Package healthcheck probes backend health endpoints. A probe is a single
// GET against the backend's health path under a strict timeout; any failure
// degrades to Unhealthy and is never returned as an error.
package healthcheck
