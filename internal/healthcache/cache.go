package healthcache

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/request-router/internal/backend"
	"github.com/angeloszaimis/request-router/internal/flight"
	"github.com/angeloszaimis/request-router/internal/healthcheck"
)

const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 1000

	warmConcurrency = 16
)

type entry struct {
	key       string
	status    healthcheck.Status
	createdAt time.Time
}

// Cache maps backends to their last probed health status.
type Cache struct {
	prober     healthcheck.Prober
	clock      clockwork.Clock
	ttl        time.Duration
	maxEntries int
	logger     *slog.Logger

	mutex   sync.Mutex
	entries map[string]*list.Element
	order   *list.List

	flights flight.Group[string, healthcheck.Status]
}

type Option func(*Cache)

// WithTTL sets how long a probe result stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithMaxEntries bounds the number of cached statuses.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = n
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Cache) {
		c.clock = clock
	}
}

func New(prober healthcheck.Prober, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		prober:     prober,
		clock:      clockwork.NewRealClock(),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		logger:     logger,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}

	return c
}

// Get returns the health status of b, probing it when no fresh entry exists.
// It never fails: probe errors have already been folded into Unhealthy.
func (c *Cache) Get(ctx context.Context, b *backend.Backend) healthcheck.Status {
	key := b.Key()

	if status, ok := c.lookup(key); ok {
		return status
	}

	status, shared := c.flights.Do(key, func() healthcheck.Status {
		// A call that finished between lookup and Do may have stored a result.
		if status, ok := c.lookup(key); ok {
			return status
		}

		// The probe outlives a cancelled caller: its result is shared and cached.
		status := c.prober.Probe(context.WithoutCancel(ctx), b)
		c.store(key, status)

		c.logger.Info("Loaded health status",
			slog.String("server", key),
			slog.String("status", status.String()))
		return status
	})

	if shared {
		c.logger.Debug("Shared in-flight health probe", slog.String("server", key))
	}

	return status
}

// Len returns the number of cached entries, fresh or stale.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.order.Len()
}

// Sweep removes every stale entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	removed := 0
	for e := c.order.Front(); e != nil; {
		next := e.Next()
		if c.isStale(e.Value.(*entry), now) {
			c.remove(e)
			removed++
		}
		e = next
	}

	return removed
}

// Run sweeps stale entries every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Health cache janitor stopped")
			return

		case <-ticker.Chan():
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("Swept stale health entries", slog.Int("removed", n))
			}
		}
	}
}

// Warm probes all backends concurrently so that early requests find the
// cache populated. It returns the number of healthy backends.
func (c *Cache) Warm(ctx context.Context, backends []*backend.Backend) (int, error) {
	var (
		g       errgroup.Group
		mutex   sync.Mutex
		healthy int
	)
	g.SetLimit(warmConcurrency)

	for _, b := range backends {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if c.Get(ctx, b) == healthcheck.Healthy {
				mutex.Lock()
				healthy++
				mutex.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return healthy, err
	}

	return healthy, nil
}

func (c *Cache) lookup(key string) (healthcheck.Status, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return healthcheck.Unhealthy, false
	}

	ent := e.Value.(*entry)
	if c.isStale(ent, c.clock.Now()) {
		c.remove(e)
		return healthcheck.Unhealthy, false
	}

	return ent.status, true
}

func (c *Cache) store(key string, status healthcheck.Status) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if e, ok := c.entries[key]; ok {
		c.remove(e)
	}

	c.entries[key] = c.order.PushBack(&entry{
		key:       key,
		status:    status,
		createdAt: c.clock.Now(),
	})

	for c.order.Len() > c.maxEntries {
		c.remove(c.order.Front())
	}
}

// remove must be called with c.mutex held.
func (c *Cache) remove(e *list.Element) {
	ent := e.Value.(*entry)
	c.order.Remove(e)
	delete(c.entries, ent.key)
}

func (c *Cache) isStale(ent *entry, now time.Time) bool {
	return now.Sub(ent.createdAt) >= c.ttl
}
