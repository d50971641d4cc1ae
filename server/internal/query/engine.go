package query

import (
	"errors"
	"time"

	"github.com/isstracker/isstracker/pkg/types"
	"github.com/isstracker/isstracker/server/internal/store"
)

// ErrNotFound is returned by single-entity lookups with no match.
var ErrNotFound = errors.New("not found")

// Source supplies the snapshot to query. *store.Store satisfies it.
type Source interface {
	Snapshot() *store.Snapshot
}

// Keyed is a filter result keyed by the last hierarchy component queried.
// It always holds exactly one key whose value is never nil.
type Keyed map[string][]types.SightingRecord

// Status summarises the current snapshot.
type Status struct {
	SnapshotID    string    `json:"snapshot_id,omitempty"`
	Loaded        bool      `json:"loaded"`
	LoadedAt      time.Time `json:"loaded_at"`
	EpochCount    int       `json:"epoch_count"`
	SightingCount int       `json:"sighting_count"`
	CountryCount  int       `json:"country_count"`
}

// Engine answers queries against a Source.
type Engine struct {
	src Source
}

// New creates an Engine reading from src.
func New(src Source) *Engine {
	return &Engine{src: src}
}

// ListEpochs returns every epoch in collection order.
func (e *Engine) ListEpochs() []string {
	snap := e.src.Snapshot()
	out := make([]string, 0, len(snap.Epochs))
	for _, r := range snap.Epochs {
		out = append(out, r.Epoch)
	}
	return out
}

// GetEpoch returns the first record whose epoch equals epoch.
func (e *Engine) GetEpoch(epoch string) (types.EpochRecord, error) {
	for _, r := range e.src.Snapshot().Epochs {
		if r.Epoch == epoch {
			return r, nil
		}
	}
	return types.EpochRecord{}, ErrNotFound
}

// ListCountries returns the distinct countries. Order is unspecified.
func (e *Engine) ListCountries() []string {
	return distinct(e.src.Snapshot().Sightings, func(r *types.SightingRecord) (string, bool) {
		return r.Country, true
	})
}

// GetCountry returns all sightings in country, keyed by country.
func (e *Engine) GetCountry(country string) Keyed {
	return filter(e.src.Snapshot().Sightings, country, func(r *types.SightingRecord) bool {
		return r.Country == country
	})
}

// ListRegions returns the distinct regions of country.
func (e *Engine) ListRegions(country string) []string {
	return distinct(e.src.Snapshot().Sightings, func(r *types.SightingRecord) (string, bool) {
		return r.Region, r.Country == country
	})
}

// GetRegion returns all sightings in country and region, keyed by region.
func (e *Engine) GetRegion(country, region string) Keyed {
	return filter(e.src.Snapshot().Sightings, region, func(r *types.SightingRecord) bool {
		return r.Country == country && r.Region == region
	})
}

// ListCities returns the distinct cities of region within country.
func (e *Engine) ListCities(country, region string) []string {
	return distinct(e.src.Snapshot().Sightings, func(r *types.SightingRecord) (string, bool) {
		return r.City, r.Country == country && r.Region == region
	})
}

// GetCity returns all sightings at the given location, keyed by city.
func (e *Engine) GetCity(country, region, city string) Keyed {
	return filter(e.src.Snapshot().Sightings, city, func(r *types.SightingRecord) bool {
		return r.Country == country && r.Region == region && r.City == city
	})
}

// Status reports the identity and size of the current snapshot.
func (e *Engine) Status() Status {
	snap := e.src.Snapshot()
	countries := make(map[string]struct{})
	for i := range snap.Sightings {
		countries[snap.Sightings[i].Country] = struct{}{}
	}
	return Status{
		SnapshotID:    snap.ID,
		Loaded:        snap.Loaded(),
		LoadedAt:      snap.LoadedAt,
		EpochCount:    len(snap.Epochs),
		SightingCount: len(snap.Sightings),
		CountryCount:  len(countries),
	}
}

// distinct projects the selected records through pick and drops repeats.
func distinct(recs []types.SightingRecord, pick func(*types.SightingRecord) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := range recs {
		v, ok := pick(&recs[i])
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func filter(recs []types.SightingRecord, key string, match func(*types.SightingRecord) bool) Keyed {
	out := make([]types.SightingRecord, 0)
	for i := range recs {
		if match(&recs[i]) {
			out = append(out, recs[i])
		}
	}
	return Keyed{key: out}
}
