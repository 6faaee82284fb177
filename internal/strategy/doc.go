// Package strategy defines how the load balancer walks its backend list.
//
// A Strategy only produces candidates; health filtering is the load
// balancer's job. Round Robin is the only strategy: it cycles through the
// configured list in order using a shared, monotonically increasing cursor
// that wraps by modulo.
package strategy
