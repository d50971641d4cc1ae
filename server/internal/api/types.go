package api

// errorResponse is a generic JSON error body. Kind is set for load failures
// (source_unavailable | malformed_source | schema_mismatch | error).
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
