// Package types defines the record types shared by the loader, the store and
// the query layer. Records are the typed form of one source entry: the
// lookup keys are lifted into fields, everything else stays in Fields
// exactly as decoded.
package types
