// Package source reads the epoch and sighting documents and turns them into
// typed records.
//
// A source is described by a Spec: where the document lives (a local path, a
// file:// URL or an http(s):// URL), how it is encoded (xml or json) and the
// dot-separated path from the document root down to the list of entries.
//
// Failures are reported with one of three sentinel errors, always wrapped
// with the source name and the underlying cause:
//
//   - ErrSourceUnavailable the document could not be read or fetched
//   - ErrMalformedSource   the bytes do not decode as the declared format
//   - ErrSchemaMismatch    the entry path or a required entry key is absent
//
// Watch observes local source files with fsnotify and triggers a reload when
// they change.
package source
