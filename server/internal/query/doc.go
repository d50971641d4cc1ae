// Package query implements the read operations over the loaded datasets.
//
// Every operation takes the store's current snapshot once and scans it
// linearly; there are no indexes. Comparisons are exact and case-sensitive.
//
// Single-entity lookups (GetEpoch) return ErrNotFound when nothing matches.
// Filter operations (GetCountry, GetRegion, GetCity) and distinct-value
// listings never fail: no match is an empty result.
package query
