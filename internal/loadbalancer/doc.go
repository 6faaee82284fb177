// Package loadbalancer selects a healthy backend for each request. It walks
// the configured backends with a Strategy and consults a health source for
// every candidate, skipping unhealthy ones.
package loadbalancer
