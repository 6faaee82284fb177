// Package echo implements the downstream service the router forwards to.
// It answers health checks on /healthz and returns any body POSTed to /echo.
package echo
