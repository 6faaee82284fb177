// Package httpserver runs an http.Handler on a validated address with
// graceful shutdown.
package httpserver
