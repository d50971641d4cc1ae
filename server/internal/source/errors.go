package source

import "errors"

var (
	// ErrSourceUnavailable means the document could not be read at all.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedSource means the document is not valid XML or JSON.
	ErrMalformedSource = errors.New("malformed source")

	// ErrSchemaMismatch means the document decoded but the expected nested
	// path or a required entry field is missing.
	ErrSchemaMismatch = errors.New("schema mismatch")
)
