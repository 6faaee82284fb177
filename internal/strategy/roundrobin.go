package strategy

import (
	"sync/atomic"

	"github.com/angeloszaimis/request-router/internal/backend"
)

const RoundRobinName = "round-robin"

// RoundRobin hands out backends in list order. The cursor only grows;
// positions wrap by modulo the list length.
type RoundRobin struct {
	cursor atomic.Uint64
}

func (rr *RoundRobin) SelectBackend(backends []*backend.Backend) *backend.Backend {
	if len(backends) == 0 {
		return nil
	}

	pos := rr.cursor.Add(1) - 1

	return backends[pos%uint64(len(backends))]
}

// Cursor is the number of candidates handed out so far.
func (rr *RoundRobin) Cursor() uint64 {
	return rr.cursor.Load()
}

func (rr *RoundRobin) Name() string {
	return RoundRobinName
}

func NewRoundRobinStrategy() *RoundRobin {
	return &RoundRobin{}
}
