// Package cache stores sweep records and rendered artifacts by content key.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// the HTTP server, and [NullCache] when caching is disabled. Keys come from a
// [Keyer] so that callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	// SweepTTL bounds how long a cached sweep record stays valid. Records are
	// pure functions of their key, so the TTL only limits disk growth.
	SweepTTL = 7 * 24 * time.Hour

	// ArtifactTTL bounds how long a rendered artifact stays valid.
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. The bool is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// SweepKey identifies a sweep record.
	SweepKey(lengths [4]float64, opts SweepKeyOpts) string

	// ArtifactKey identifies an artifact rendered from a sweep record.
	ArtifactKey(sweepHash string, opts ArtifactKeyOpts) string
}

// SweepKeyOpts are the solver settings that change a sweep record.
type SweepKeyOpts struct {
	Step              int     `json:"step"`
	Tolerance         float64 `json:"tolerance"`
	MaxIter           int     `json:"max_iter"`
	SingularThreshold float64 `json:"singular_threshold"`
}

// ArtifactKeyOpts are the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// DefaultKeyer produces "sweep:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SweepKey hashes the link lengths together with the solver settings.
func (DefaultKeyer) SweepKey(lengths [4]float64, opts SweepKeyOpts) string {
	return hashKey("sweep", lengths, opts)
}

// ArtifactKey hashes the sweep hash together with the render settings.
func (DefaultKeyer) ArtifactKey(sweepHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sweepHash, opts)
}

var _ Keyer = DefaultKeyer{}
