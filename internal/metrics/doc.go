// Package metrics exposes Prometheus counters for conversion drains.
package metrics
