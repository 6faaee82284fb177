// Package logger builds the application's slog.Logger: human-readable text
// in development, JSON in production.
package logger
