// Package store holds the loaded epoch and sighting datasets.
//
// The datasets live in one immutable Snapshot. Load reads both sources
// through a Loader and publishes a new Snapshot only when both succeed, so
// readers always see either the previous pair of collections or the new
// pair, never a mix. Readers take the current Snapshot with Snapshot() and
// scan it without further locking.
package store
