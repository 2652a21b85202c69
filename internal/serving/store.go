// Package serving reconstructs full feature rows from partial request
// payloads using the frozen schema, and holds the trained artifact as
// process-wide immutable state.
package serving

import (
	"sync/atomic"

	"github.com/propsignal/incentive-recommender/internal/artifact"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

// Store holds the loaded artifact behind an atomic pointer. It is written
// once at startup and only read by request handlers; the bundle itself is
// immutable after load.
type Store struct {
	bundle atomic.Pointer[artifact.Bundle]
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// LoadFile reads the artifact from disk and publishes it.
func (s *Store) LoadFile(path string) error {
	b, err := artifact.Load(path)
	if err != nil {
		return err
	}
	s.bundle.Store(b)
	return nil
}

// Set publishes an in-memory bundle. Used by tests and by callers that
// train and serve in one process.
func (s *Store) Set(b *artifact.Bundle) {
	s.bundle.Store(b)
}

// Get returns the loaded bundle, or ErrModelNotLoaded before load.
func (s *Store) Get() (*artifact.Bundle, error) {
	b := s.bundle.Load()
	if b == nil {
		return nil, types.ErrModelNotLoaded
	}
	return b, nil
}

// Loaded reports whether an artifact has been published.
func (s *Store) Loaded() bool {
	return s.bundle.Load() != nil
}
