// Package api implements the HTTP interface of the ISS tracker.
//
// New(store, metrics) returns an http.Handler that serves:
//
//	GET  /                                              usage text
//	POST /reset                                         reload both sources
//	GET  /epochs                                        all epochs, one per line
//	GET  /epochs/{epoch}                                one epoch record; 404 if unknown
//	GET  /countries                                     distinct countries, one per line
//	GET  /countries/{c}                                 {c: [sightings]}
//	GET  /countries/{c}/regions                         distinct regions, one per line
//	GET  /countries/{c}/regions/{r}                     {r: [sightings]}
//	GET  /countries/{c}/regions/{r}/cities              distinct cities, one per line
//	GET  /countries/{c}/regions/{r}/cities/{city}       {city: [sightings]}
//	GET  /api/v1/status                                 snapshot id, load time, counts
//
// Lists are text/plain with one value per line. Records are JSON in the flat
// shape of the source entry. Filter routes with no match return an empty
// list under the requested key, not 404. Wrong methods get 405.
//
// A failed reset answers 503 when a source could not be read and 422 when a
// source could not be decoded or lacks the expected structure; the previous
// data stays in place.
package api
