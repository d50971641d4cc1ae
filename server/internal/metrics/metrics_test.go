package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/isstracker/isstracker/pkg/types"
	"github.com/isstracker/isstracker/server/internal/source"
	"github.com/isstracker/isstracker/server/internal/store"
)

func counterValue(mf *dto.MetricFamily, label, value string) float64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestLoadResult(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ResultOK},
		{fmt.Errorf("store: load: %w", source.ErrSourceUnavailable), ResultSourceUnavailable},
		{fmt.Errorf("x: %w", source.ErrMalformedSource), ResultMalformedSource},
		{fmt.Errorf("x: %w", source.ErrSchemaMismatch), ResultSchemaMismatch},
		{errors.New("other"), ResultError},
	}
	for _, tc := range cases {
		if got := LoadResult(tc.err); got != tc.want {
			t.Errorf("LoadResult(%v): got %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserveLoad(t *testing.T) {
	m := New()
	snap := &store.Snapshot{
		ID:        "id",
		LoadedAt:  time.Unix(1645876800, 0),
		Epochs:    make([]types.EpochRecord, 2),
		Sightings: make([]types.SightingRecord, 3),
	}
	m.ObserveLoad(snap, 10*time.Millisecond, nil)
	m.ObserveLoad(nil, time.Millisecond, source.ErrSchemaMismatch)

	mfs, err := m.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	loads := mfs["isstracker_loads_total"]
	if v := counterValue(loads, "result", ResultOK); v != 1 {
		t.Errorf("loads{ok}: got %v, want 1", v)
	}
	if v := counterValue(loads, "result", ResultSchemaMismatch); v != 1 {
		t.Errorf("loads{schema_mismatch}: got %v, want 1", v)
	}
	if v := mfs["isstracker_epoch_records"].GetMetric()[0].GetGauge().GetValue(); v != 2 {
		t.Errorf("epoch_records: got %v, want 2", v)
	}
	if v := mfs["isstracker_sighting_records"].GetMetric()[0].GetGauge().GetValue(); v != 3 {
		t.Errorf("sighting_records: got %v, want 3", v)
	}
	if v := mfs["isstracker_last_load_timestamp_seconds"].GetMetric()[0].GetGauge().GetValue(); v != 1645876800 {
		t.Errorf("last_load: got %v", v)
	}
	if n := mfs["isstracker_load_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount(); n != 2 {
		t.Errorf("load_duration count: got %d, want 2", n)
	}
}

func TestHandler_TextExposition(t *testing.T) {
	m := New()
	m.ObserveRequest("epochs", http.StatusOK)
	m.ObserveRequest("epochs", http.StatusOK)
	m.ObserveRequest("epoch", http.StatusNotFound)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	reqs := mfs["isstracker_http_requests_total"]
	if reqs == nil {
		t.Fatal("isstracker_http_requests_total missing")
	}
	var ok, notFound float64
	for _, mt := range reqs.GetMetric() {
		labels := map[string]string{}
		for _, lp := range mt.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		switch {
		case labels["route"] == "epochs" && labels["code"] == "200":
			ok = mt.GetCounter().GetValue()
		case labels["route"] == "epoch" && labels["code"] == "404":
			notFound = mt.GetCounter().GetValue()
		}
	}
	if ok != 2 || notFound != 1 {
		t.Errorf("requests: ok=%v notFound=%v, want 2/1", ok, notFound)
	}
}

func TestHandler_NegotiatesProtobuf(t *testing.T) {
	m := New()
	m.ObserveRequest("status", http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "application/vnd.google.protobuf;proto=io.prometheus.client.MetricFamily;encoding=delimited")
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	format := expfmt.ResponseFormat(rr.Result().Header)
	if format.FormatType() != expfmt.TypeProtoDelim {
		t.Fatalf("format: got %q, want delimited protobuf", format)
	}
	dec := expfmt.NewDecoder(rr.Body, format)
	found := false
	for {
		var mf dto.MetricFamily
		if err := dec.Decode(&mf); err != nil {
			break
		}
		if mf.GetName() == "isstracker_http_requests_total" {
			found = true
		}
	}
	if !found {
		t.Error("isstracker_http_requests_total missing from protobuf exposition")
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	New().Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}
