// Package handler adapts HTTP requests arriving at the router to the
// dispatcher and writes its response back to the client.
package handler
