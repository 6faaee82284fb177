package strategy

import (
	"github.com/angeloszaimis/request-router/internal/backend"
)

// Strategy produces the next candidate from a backend list. Each call
// advances the strategy's position; it returns nil for an empty list.
type Strategy interface {
	SelectBackend(backends []*backend.Backend) *backend.Backend
	Name() string
}
