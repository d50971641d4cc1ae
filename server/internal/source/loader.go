package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/isstracker/isstracker/pkg/types"
)

// Default source documents and entry paths.
const (
	DefaultEpochLocation    = "ISS.OEM_J2K_EPH.xml"
	DefaultEpochPath        = "ndm.oem.body.segment.data.stateVector"
	DefaultSightingLocation = "XMLsightingData_citiesUSA01.xml"
	DefaultSightingPath     = "visible_passes.visible_pass"
)

// Spec describes one source document.
type Spec struct {
	// Name identifies the source in errors and logs ("epochs", "sightings").
	Name string

	// Location is a local path, a file:// URL or an http(s):// URL.
	Location string

	// Format is xml or json; empty means infer from Location.
	Format Format

	// Path is the dot-separated path from the root to the entry list.
	Path string
}

// Loader reads both source documents on every call. It keeps no state
// between calls.
type Loader struct {
	epochs    Spec
	sightings Spec
	fetcher   *Fetcher
}

// NewLoader creates a Loader for the given epoch and sighting sources.
func NewLoader(epochs, sightings Spec, f *Fetcher) *Loader {
	if f == nil {
		f = NewFetcher(DefaultFetchTimeout, DefaultRetryMax)
	}
	if epochs.Name == "" {
		epochs.Name = "epochs"
	}
	if sightings.Name == "" {
		sightings.Name = "sightings"
	}
	return &Loader{epochs: epochs, sightings: sightings, fetcher: f}
}

// Specs returns the epoch and sighting source specs.
func (l *Loader) Specs() (epochs, sightings Spec) {
	return l.epochs, l.sightings
}

// Epochs reads and parses the epoch source.
func (l *Loader) Epochs(ctx context.Context) ([]types.EpochRecord, error) {
	entries, err := l.entries(ctx, l.epochs)
	if err != nil {
		return nil, err
	}
	out := make([]types.EpochRecord, 0, len(entries))
	for i, e := range entries {
		rec, err := types.NewEpochRecord(e)
		if err != nil {
			return nil, schemaErr(l.epochs, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Sightings reads and parses the sighting source.
func (l *Loader) Sightings(ctx context.Context) ([]types.SightingRecord, error) {
	entries, err := l.entries(ctx, l.sightings)
	if err != nil {
		return nil, err
	}
	out := make([]types.SightingRecord, 0, len(entries))
	for i, e := range entries {
		rec, err := types.NewSightingRecord(e)
		if err != nil {
			return nil, schemaErr(l.sightings, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *Loader) entries(ctx context.Context, s Spec) ([]map[string]any, error) {
	data, err := l.fetcher.Read(ctx, s.Location)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.Name, err)
	}
	entries, err := Entries(data, FormatFor(s.Format, s.Location), s.Path)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.Name, err)
	}
	slog.Debug("source: decoded entries", "source", s.Name, "location", s.Location, "count", len(entries))
	return entries, nil
}

func schemaErr(s Spec, i int, err error) error {
	var mk *types.MissingKeyError
	if errors.As(err, &mk) {
		return fmt.Errorf("source %s: %w: entry %d: %w", s.Name, ErrSchemaMismatch, i, err)
	}
	return fmt.Errorf("source %s: entry %d: %w", s.Name, i, err)
}
