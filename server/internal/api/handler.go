package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/isstracker/isstracker/server/internal/metrics"
	"github.com/isstracker/isstracker/server/internal/query"
	"github.com/isstracker/isstracker/server/internal/source"
	"github.com/isstracker/isstracker/server/internal/store"
)

// ResetMessage is the body returned by a successful POST /reset.
const ResetMessage = "Data has been read from file\n"

// Usage is the body returned by GET /.
const Usage = `
### ISS Tracker ###

Informational and management routes:

/                                                    (GET) print this information
/reset                                               (POST) reset data, load from file
/api/v1/status                                       (GET) snapshot id, load time and record counts
/metrics                                             (GET) Prometheus metrics
/ws/stream                                           (GET) WebSocket status stream

Routes for querying positional and velocity data:

/epochs                                              (GET) list all epochs
/epochs/<epoch>                                      (GET) info on a specific epoch

Routes for querying sighting data:

/countries                                           (GET) list of all countries
/countries/<country>                                 (GET) all data associated with <country>
/countries/<country>/regions                         (GET) list of all regions in a given country
/countries/<country>/regions/<region>                (GET) all data associated with <region>
/countries/<country>/regions/<region>/cities         (GET) list of all cities in a given region
/countries/<country>/regions/<region>/cities/<city>  (GET) all data associated with <city>
`

// Handler serves the query routes over the current store snapshot.
type Handler struct {
	store   *store.Store
	engine  *query.Engine
	metrics *metrics.Metrics // may be nil
	mux     *http.ServeMux
}

// New creates a Handler wired to st and registers all routes. m may be nil.
func New(st *store.Store, m *metrics.Metrics) http.Handler {
	h := &Handler{
		store:   st,
		engine:  query.New(st),
		metrics: m,
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("/", h.instrument("info", h.info))
	h.mux.HandleFunc("/reset", h.instrument("reset", h.reset))
	h.mux.HandleFunc("/epochs", h.instrument("epochs", h.listEpochs))
	h.mux.HandleFunc("/epochs/", h.getEpoch) // subtree: extracts {epoch}
	h.mux.HandleFunc("/countries", h.instrument("countries", h.listCountries))
	h.mux.HandleFunc("/countries/", h.countryTree) // subtree: regions and cities
	h.mux.HandleFunc("/api/v1/status", h.instrument("status", h.status))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// info returns GET /: usage text.
func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "route not found")
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(Usage)) //nolint:errcheck
}

// reset handles POST /reset: reloads both sources.
func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap, err := h.store.Load(r.Context())
	if err != nil {
		jsonResp(w, loadErrStatus(err), errorResponse{
			Error: err.Error(),
			Kind:  metrics.LoadResult(err),
		})
		return
	}
	w.Header().Set("X-Snapshot-Id", snap.ID)
	textResp(w, http.StatusOK, ResetMessage)
}

// listEpochs returns GET /epochs: all epochs, one per line.
func (h *Handler) listEpochs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	linesResp(w, h.engine.ListEpochs())
}

// getEpoch returns GET /epochs/{epoch}: one epoch record; 404 if unknown.
func (h *Handler) getEpoch(w http.ResponseWriter, r *http.Request) {
	segs, ok := segments(r, "/epochs/")
	if !ok {
		h.instrument("epoch", notFound)(w, r)
		return
	}
	if len(segs) == 0 {
		// Bare /epochs/ behaves like the list route.
		h.instrument("epochs", h.listEpochs)(w, r)
		return
	}
	if len(segs) != 1 {
		h.instrument("epoch", notFound)(w, r)
		return
	}
	h.instrument("epoch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		rec, err := h.engine.GetEpoch(segs[0])
		if errors.Is(err, query.ErrNotFound) {
			jsonErr(w, http.StatusNotFound, "epoch not found")
			return
		}
		jsonResp(w, http.StatusOK, rec)
	})(w, r)
}

// listCountries returns GET /countries: distinct countries, one per line.
func (h *Handler) listCountries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	linesResp(w, h.engine.ListCountries())
}

// countryTree dispatches every route below /countries/.
func (h *Handler) countryTree(w http.ResponseWriter, r *http.Request) {
	segs, ok := segments(r, "/countries/")
	if !ok {
		h.instrument("country", notFound)(w, r)
		return
	}

	var name string
	var serve func() any
	switch {
	case len(segs) == 0:
		h.instrument("countries", h.listCountries)(w, r)
		return
	case len(segs) == 1:
		name, serve = "country", func() any { return h.engine.GetCountry(segs[0]) }
	case len(segs) == 2 && segs[1] == "regions":
		name, serve = "regions", func() any { return h.engine.ListRegions(segs[0]) }
	case len(segs) == 3 && segs[1] == "regions":
		name, serve = "region", func() any { return h.engine.GetRegion(segs[0], segs[2]) }
	case len(segs) == 4 && segs[1] == "regions" && segs[3] == "cities":
		name, serve = "cities", func() any { return h.engine.ListCities(segs[0], segs[2]) }
	case len(segs) == 5 && segs[1] == "regions" && segs[3] == "cities":
		name, serve = "city", func() any { return h.engine.GetCity(segs[0], segs[2], segs[4]) }
	default:
		h.instrument("country", notFound)(w, r)
		return
	}

	h.instrument(name, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		switch v := serve().(type) {
		case []string:
			linesResp(w, v)
		default:
			jsonResp(w, http.StatusOK, v)
		}
	})(w, r)
}

// status returns GET /api/v1/status: snapshot identity and counts.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.engine.Status())
}

// --- helpers ----------------------------------------------------------------

// instrument wraps fn so its status code is counted under route.
func (h *Handler) instrument(route string, fn http.HandlerFunc) http.HandlerFunc {
	if h.metrics == nil {
		return fn
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		fn(rec, r)
		h.metrics.ObserveRequest(route, rec.code)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	jsonErr(w, http.StatusNotFound, "route not found")
}

// segments splits the escaped path below prefix into unescaped segments.
// A single trailing slash is ignored. It reports false for empty or
// undecodable segments.
func segments(r *http.Request, prefix string) ([]string, bool) {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return nil, true
	}
	raw := strings.Split(rest, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s == "" {
			return nil, false
		}
		u, err := url.PathUnescape(s)
		if err != nil {
			return nil, false
		}
		out = append(out, u)
	}
	return out, true
}

// loadErrStatus maps a load failure to an HTTP status code.
func loadErrStatus(err error) int {
	switch {
	case errors.Is(err, source.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, source.ErrMalformedSource), errors.Is(err, source.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func textResp(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(body)) //nolint:errcheck
}

// linesResp writes each line followed by a newline.
func linesResp(w http.ResponseWriter, lines []string) {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	textResp(w, http.StatusOK, b.String())
}
