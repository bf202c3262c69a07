// Package collector fetches raw report inputs from data providers and
// validates them into engine inputs.
package collector

import (
	"context"
	"time"

	"EquitySheet/internal/model"
)

// Provider supplies the raw payload for one security.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, key model.SecurityKey, asOf time.Time) (*Payload, error)
}

// BenchmarkSource supplies benchmark index closes when a provider payload
// carries none.
type BenchmarkSource interface {
	Name() string
	FetchBenchmark(ctx context.Context, from, to time.Time) ([]model.BenchmarkPoint, error)
}
