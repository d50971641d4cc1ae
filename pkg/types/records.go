package types

import (
	"encoding/json"
	"fmt"
)

// Source entry keys that become typed record fields.
const (
	KeyEpoch   = "EPOCH"
	KeyCountry = "country"
	KeyRegion  = "region"
	KeyCity    = "city"
)

// Fields holds the remaining attributes of a source entry. Values are whatever
// the decoder produced: strings, numbers, bools, nil, nested maps or lists.
type Fields map[string]any

// EpochRecord is one state-vector sample.
type EpochRecord struct {
	Epoch  string
	Fields Fields
}

// SightingRecord is one predicted visible pass over a named location.
type SightingRecord struct {
	Country string
	Region  string
	City    string
	Fields  Fields
}

// NewEpochRecord lifts EPOCH out of entry. The entry map is not retained.
func NewEpochRecord(entry map[string]any) (EpochRecord, error) {
	epoch, err := stringKey(entry, KeyEpoch)
	if err != nil {
		return EpochRecord{}, err
	}
	return EpochRecord{Epoch: epoch, Fields: rest(entry, KeyEpoch)}, nil
}

// NewSightingRecord lifts country, region and city out of entry.
func NewSightingRecord(entry map[string]any) (SightingRecord, error) {
	var r SightingRecord
	var err error
	if r.Country, err = stringKey(entry, KeyCountry); err != nil {
		return SightingRecord{}, err
	}
	if r.Region, err = stringKey(entry, KeyRegion); err != nil {
		return SightingRecord{}, err
	}
	if r.City, err = stringKey(entry, KeyCity); err != nil {
		return SightingRecord{}, err
	}
	r.Fields = rest(entry, KeyCountry, KeyRegion, KeyCity)
	return r, nil
}

// Map returns the flat entry form of r, the inverse of NewEpochRecord.
func (r EpochRecord) Map() map[string]any {
	m := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[KeyEpoch] = r.Epoch
	return m
}

// Map returns the flat entry form of r, the inverse of NewSightingRecord.
func (r SightingRecord) Map() map[string]any {
	m := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[KeyCountry] = r.Country
	m[KeyRegion] = r.Region
	m[KeyCity] = r.City
	return m
}

// MarshalJSON renders the record as the flat mapping it was parsed from.
func (r EpochRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalJSON accepts the flat mapping produced by MarshalJSON.
func (r *EpochRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	rec, err := NewEpochRecord(m)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON renders the record as the flat mapping it was parsed from.
func (r SightingRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalJSON accepts the flat mapping produced by MarshalJSON.
func (r *SightingRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	rec, err := NewSightingRecord(m)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// MissingKeyError reports an entry without a required string key.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("entry has no string %q field", e.Key)
}

func stringKey(entry map[string]any, key string) (string, error) {
	s, ok := entry[key].(string)
	if !ok {
		return "", &MissingKeyError{Key: key}
	}
	return s, nil
}

func rest(entry map[string]any, skip ...string) Fields {
	f := make(Fields, len(entry))
outer:
	for k, v := range entry {
		for _, s := range skip {
			if k == s {
				continue outer
			}
		}
		f[k] = v
	}
	return f
}
