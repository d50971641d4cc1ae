// Package metrics exposes load and request counters to Prometheus.
package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/isstracker/isstracker/server/internal/source"
	"github.com/isstracker/isstracker/server/internal/store"
)

// Load results used as the "result" label of isstracker_loads_total.
const (
	ResultOK                = "ok"
	ResultSourceUnavailable = "source_unavailable"
	ResultMalformedSource   = "malformed_source"
	ResultSchemaMismatch    = "schema_mismatch"
	ResultError             = "error"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide.
type Metrics struct {
	reg *prometheus.Registry

	loads        *prometheus.CounterVec
	loadDuration prometheus.Histogram
	epochs       prometheus.Gauge
	sightings    prometheus.Gauge
	lastLoad     prometheus.Gauge
	requests     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "isstracker_loads_total",
			Help: "Dataset load attempts by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "isstracker_load_duration_seconds",
			Help:    "Time spent reading and parsing both sources.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		epochs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isstracker_epoch_records",
			Help: "Epoch records in the current snapshot.",
		}),
		sightings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isstracker_sighting_records",
			Help: "Sighting records in the current snapshot.",
		}),
		lastLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isstracker_last_load_timestamp_seconds",
			Help: "Unix time of the last successful load.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "isstracker_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.reg.MustRegister(m.loads, m.loadDuration, m.epochs, m.sightings, m.lastLoad, m.requests)
	return m
}

// ObserveLoad records one load attempt. Its signature matches
// store.Observer.
func (m *Metrics) ObserveLoad(snap *store.Snapshot, dur time.Duration, err error) {
	m.loads.WithLabelValues(LoadResult(err)).Inc()
	m.loadDuration.Observe(dur.Seconds())
	if err != nil || snap == nil {
		return
	}
	m.epochs.Set(float64(len(snap.Epochs)))
	m.sightings.Set(float64(len(snap.Sightings)))
	m.lastLoad.Set(float64(snap.LoadedAt.Unix()))
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// LoadResult maps a load error to its result label.
func LoadResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, source.ErrSourceUnavailable):
		return ResultSourceUnavailable
	case errors.Is(err, source.ErrMalformedSource):
		return ResultMalformedSource
	case errors.Is(err, source.ErrSchemaMismatch):
		return ResultSchemaMismatch
	default:
		return ResultError
	}
}

// Gather returns the current metric families keyed by name.
func (m *Metrics) Gather() (map[string]*dto.MetricFamily, error) {
	mfs, err := m.reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out, nil
}

// Handler serves the registry in the Prometheus exposition format
// negotiated from the Accept header.
func (m *Metrics) Handler() http.Handler {
	h := promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}
