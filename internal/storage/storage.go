// Package storage persists reflections to the configured backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/reflectdev/commit-reflect/internal/config"
	"github.com/reflectdev/commit-reflect/pkg/models"
)

// Backend writes reflections to one storage medium.
type Backend interface {
	Name() string
	Write(ctx context.Context, r *models.Reflection) error
	Close() error
}

// Reader retrieves stored reflections, most recent first.
type Reader interface {
	ReadRecent(ctx context.Context, limit int) ([]*models.Reflection, error)
}

// Multi fans a write out to every configured backend. A write succeeds if
// at least one backend accepts it; individual failures are logged and
// collected.
type Multi struct {
	backends []Backend
}

// Open builds the backend set named by cfg.StorageBackends.
func Open(cfg *config.Config) (*Multi, error) {
	var backends []Backend
	for _, name := range cfg.StorageBackends {
		switch name {
		case "jsonl":
			b, err := NewJSONL(cfg.JSONLPath)
			if err != nil {
				return nil, fmt.Errorf("open jsonl backend: %w", err)
			}
			backends = append(backends, b)
		case "sqlite":
			b, err := NewSQLite(cfg.DBPath, cfg.MaxConns)
			if err != nil {
				return nil, fmt.Errorf("open sqlite backend: %w", err)
			}
			backends = append(backends, b)
		default:
			return nil, fmt.Errorf("unknown storage backend %q", name)
		}
	}
	if len(backends) == 0 {
		return nil, errors.New("no storage backends configured")
	}
	return &Multi{backends: backends}, nil
}

// NewMulti wraps an explicit backend list.
func NewMulti(backends ...Backend) *Multi {
	return &Multi{backends: backends}
}

// Backends returns the underlying backends in write order.
func (m *Multi) Backends() []Backend {
	return m.backends
}

// Write saves the reflection to every backend, best effort. It returns an
// error only when all backends fail.
func (m *Multi) Write(ctx context.Context, r *models.Reflection) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.Write(ctx, r); err != nil {
			log.Warn().Err(err).Str("backend", b.Name()).Str("reflection_id", r.ID).
				Msg("backend write failed")
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	if len(errs) == len(m.backends) {
		return fmt.Errorf("all storage backends failed: %w", errors.Join(errs...))
	}
	return nil
}

// ReadRecent reads from the first backend that supports reads.
func (m *Multi) ReadRecent(ctx context.Context, limit int) ([]*models.Reflection, error) {
	for _, b := range m.backends {
		if r, ok := b.(Reader); ok {
			return r.ReadRecent(ctx, limit)
		}
	}
	return nil, errors.New("no readable storage backend configured")
}

// Close closes every backend, returning the first error encountered.
func (m *Multi) Close() error {
	var first error
	for _, b := range m.backends {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
