package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/isstracker/isstracker/pkg/types"
)

// Loader reads the two source datasets. Implementations must return fresh
// slices on every call; the store keeps them without copying.
type Loader interface {
	Epochs(ctx context.Context) ([]types.EpochRecord, error)
	Sightings(ctx context.Context) ([]types.SightingRecord, error)
}

// Snapshot is one consistent pair of collections. A published Snapshot is
// never modified.
type Snapshot struct {
	// ID identifies the load that produced this snapshot; empty before the
	// first load.
	ID        string
	LoadedAt  time.Time
	Epochs    []types.EpochRecord
	Sightings []types.SightingRecord
}

// Loaded reports whether s came from a successful load.
func (s *Snapshot) Loaded() bool { return s.ID != "" }

// Observer is notified after every Load attempt. snap is nil when err is
// non-nil.
type Observer func(snap *Snapshot, dur time.Duration, err error)

// Store is a thread-safe holder for the current Snapshot.
type Store struct {
	loader Loader

	loadMu sync.Mutex // serialises Load calls

	mu   sync.RWMutex
	snap *Snapshot

	obsMu     sync.RWMutex
	observers []Observer

	now func() time.Time // injectable for deterministic tests
}

// New creates an empty Store that loads through l.
func New(l Loader) *Store {
	return &Store{
		loader: l,
		snap:   &Snapshot{},
		now:    time.Now,
	}
}

// Snapshot returns the current snapshot. It is never nil.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// OnLoad registers fn to be called after every Load attempt.
func (s *Store) OnLoad(fn Observer) {
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

// Load reads both sources and replaces the current snapshot. If either
// source fails nothing is replaced and the error names the failing source.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := s.now()
	snap, err := s.read(ctx)
	dur := s.now().Sub(start)
	if err != nil {
		slog.Error("store: load failed, keeping previous snapshot", "err", err)
		s.notify(nil, dur, err)
		return nil, err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	slog.Info("store: loaded snapshot",
		"id", snap.ID,
		"epochs", len(snap.Epochs),
		"sightings", len(snap.Sightings),
		"duration", dur,
	)
	s.notify(snap, dur, nil)
	return snap, nil
}

func (s *Store) read(ctx context.Context) (*Snapshot, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("store: no loader configured")
	}
	epochs, err := s.loader.Epochs(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	sightings, err := s.loader.Sightings(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	if epochs == nil {
		epochs = []types.EpochRecord{}
	}
	if sightings == nil {
		sightings = []types.SightingRecord{}
	}
	return &Snapshot{
		ID:        uuid.NewString(),
		LoadedAt:  s.now().UTC(),
		Epochs:    epochs,
		Sightings: sightings,
	}, nil
}

func (s *Store) notify(snap *Snapshot, dur time.Duration, err error) {
	s.obsMu.RLock()
	obs := make([]Observer, len(s.observers))
	copy(obs, s.observers)
	s.obsMu.RUnlock()
	for _, fn := range obs {
		fn(snap, dur, err)
	}
}
