package query

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/isstracker/isstracker/pkg/types"
	"github.com/isstracker/isstracker/server/internal/store"
)

func sighting(country, region, city string, extra types.Fields) types.SightingRecord {
	if extra == nil {
		extra = types.Fields{}
	}
	return types.SightingRecord{Country: country, Region: region, City: city, Fields: extra}
}

// fixedSource serves one snapshot forever.
type fixedSource struct{ snap *store.Snapshot }

func (f fixedSource) Snapshot() *store.Snapshot { return f.snap }

func newEngine(epochs []types.EpochRecord, sightings []types.SightingRecord) *Engine {
	return New(fixedSource{&store.Snapshot{ID: "test", Epochs: epochs, Sightings: sightings}})
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// scenarioEngine holds the three-sighting, two-epoch dataset used throughout.
func scenarioEngine() *Engine {
	return newEngine(
		[]types.EpochRecord{
			{Epoch: "2022-057T12:00:00.000Z", Fields: types.Fields{"X": "-4945.2"}},
			{Epoch: "2022-057T12:04:00.000Z", Fields: types.Fields{"X": "-4334.8"}},
		},
		[]types.SightingRecord{
			sighting("United_States", "California", "Brentwood", types.Fields{"max_elevation": "11"}),
			sighting("United_States", "California", "Fremont", nil),
			sighting("United_States", "Texas", "Austin", nil),
		},
	)
}

func TestEmptyStore(t *testing.T) {
	e := New(store.New(nil))

	if got := e.ListEpochs(); len(got) != 0 {
		t.Errorf("ListEpochs: got %v", got)
	}
	if got := e.ListCountries(); len(got) != 0 {
		t.Errorf("ListCountries: got %v", got)
	}
	if got := e.ListRegions("United_States"); len(got) != 0 {
		t.Errorf("ListRegions: got %v", got)
	}
	if got := e.ListCities("United_States", "Texas"); len(got) != 0 {
		t.Errorf("ListCities: got %v", got)
	}
	if _, err := e.GetEpoch("2022-057T12:00:00.000Z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEpoch: got %v, want ErrNotFound", err)
	}
	if got := e.GetCountry("United_States"); len(got["United_States"]) != 0 {
		t.Errorf("GetCountry: got %v", got)
	}
	if st := e.Status(); st.Loaded || st.EpochCount != 0 || st.SightingCount != 0 {
		t.Errorf("Status: got %+v", st)
	}
}

func TestListEpochs_SourceOrder(t *testing.T) {
	e := scenarioEngine()
	want := []string{"2022-057T12:00:00.000Z", "2022-057T12:04:00.000Z"}
	if got := e.ListEpochs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ListEpochs: got %v, want %v", got, want)
	}
}

func TestGetEpoch_RoundTrip(t *testing.T) {
	e := scenarioEngine()
	for _, want := range e.src.Snapshot().Epochs {
		got, err := e.GetEpoch(want.Epoch)
		if err != nil {
			t.Fatalf("GetEpoch(%q): %v", want.Epoch, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("GetEpoch(%q): got %+v, want %+v", want.Epoch, got, want)
		}
	}
}

func TestGetEpoch_FirstMatchWins(t *testing.T) {
	e := newEngine([]types.EpochRecord{
		{Epoch: "dup", Fields: types.Fields{"n": "1"}},
		{Epoch: "dup", Fields: types.Fields{"n": "2"}},
	}, nil)
	got, err := e.GetEpoch("dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields["n"] != "1" {
		t.Errorf("GetEpoch: got n=%v, want 1", got.Fields["n"])
	}
}

func TestGetEpoch_ExactMatch(t *testing.T) {
	e := scenarioEngine()
	for _, q := range []string{"2022-057t12:00:00.000z", " 2022-057T12:00:00.000Z", "2022-057T12:00"} {
		if _, err := e.GetEpoch(q); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetEpoch(%q): got %v, want ErrNotFound", q, err)
		}
	}
}

func TestHierarchyScenario(t *testing.T) {
	e := scenarioEngine()

	if got := e.ListCountries(); !reflect.DeepEqual(got, []string{"United_States"}) {
		t.Errorf("ListCountries: got %v", got)
	}
	if got := sorted(e.ListRegions("United_States")); !reflect.DeepEqual(got, []string{"California", "Texas"}) {
		t.Errorf("ListRegions: got %v", got)
	}
	if got := sorted(e.ListCities("United_States", "California")); !reflect.DeepEqual(got, []string{"Brentwood", "Fremont"}) {
		t.Errorf("ListCities: got %v", got)
	}

	city := e.GetCity("United_States", "California", "Brentwood")
	recs, ok := city["Brentwood"]
	if !ok || len(city) != 1 {
		t.Fatalf("GetCity: want single key Brentwood, got %v", city)
	}
	if len(recs) != 1 {
		t.Fatalf("GetCity: got %d records, want 1", len(recs))
	}
	if recs[0].Fields["max_elevation"] != "11" {
		t.Errorf("GetCity: fields not passed through: %+v", recs[0].Fields)
	}
}

func TestFilters_ScanOrderAndKeys(t *testing.T) {
	e := scenarioEngine()

	country := e.GetCountry("United_States")["United_States"]
	var cities []string
	for _, r := range country {
		cities = append(cities, r.City)
	}
	if want := []string{"Brentwood", "Fremont", "Austin"}; !reflect.DeepEqual(cities, want) {
		t.Errorf("GetCountry order: got %v, want %v", cities, want)
	}

	region := e.GetRegion("United_States", "California")
	if len(region["California"]) != 2 {
		t.Errorf("GetRegion: got %d records, want 2", len(region["California"]))
	}
}

func TestFilters_NoMatchIsEmptyNotNil(t *testing.T) {
	e := scenarioEngine()
	cases := []struct {
		name string
		got  Keyed
		key  string
	}{
		{"country", e.GetCountry("Canada"), "Canada"},
		{"region", e.GetRegion("United_States", "Ohio"), "Ohio"},
		{"region in wrong country", e.GetRegion("Canada", "Texas"), "Texas"},
		{"city", e.GetCity("United_States", "Texas", "Brentwood"), "Brentwood"},
		{"case differs", e.GetCountry("united_states"), "united_states"},
	}
	for _, tc := range cases {
		recs, ok := tc.got[tc.key]
		if !ok {
			t.Errorf("%s: key %q missing", tc.name, tc.key)
			continue
		}
		if recs == nil || len(recs) != 0 {
			t.Errorf("%s: got %v, want empty non-nil slice", tc.name, recs)
		}
	}
}

func TestFilters_Monotonic(t *testing.T) {
	e := scenarioEngine()
	locs := []struct{ Country, Region, City string }{
		{Country: "United_States", Region: "California", City: "Brentwood"},
		{Country: "United_States", Region: "California", City: "Fremont"},
		{Country: "United_States", Region: "Texas", City: "Austin"},
		{Country: "United_States", Region: "Texas", City: "Fremont"},
		{Country: "Mexico", Region: "Texas", City: "Austin"},
	}
	contains := func(set []types.SightingRecord, r types.SightingRecord) bool {
		for _, s := range set {
			if reflect.DeepEqual(s, r) {
				return true
			}
		}
		return false
	}
	for _, l := range locs {
		city := e.GetCity(l.Country, l.Region, l.City)[l.City]
		region := e.GetRegion(l.Country, l.Region)[l.Region]
		country := e.GetCountry(l.Country)[l.Country]
		for _, r := range city {
			if !contains(region, r) {
				t.Errorf("%+v: city record %+v not in region result", l, r)
			}
		}
		for _, r := range region {
			if !contains(country, r) {
				t.Errorf("%+v: region record %+v not in country result", l, r)
			}
		}
	}
}

func TestDistinct_Dedup(t *testing.T) {
	var recs []types.SightingRecord
	for i := 0; i < 50; i++ {
		recs = append(recs,
			sighting("United_States", "Texas", "Austin", nil),
			sighting("Canada", "Ontario", "Toronto", nil),
		)
	}
	e := newEngine(nil, recs)

	if got := sorted(e.ListCountries()); !reflect.DeepEqual(got, []string{"Canada", "United_States"}) {
		t.Errorf("ListCountries: got %v", got)
	}
	if got := e.ListRegions("Canada"); !reflect.DeepEqual(got, []string{"Ontario"}) {
		t.Errorf("ListRegions: got %v", got)
	}
	if got := e.ListCities("United_States", "Texas"); !reflect.DeepEqual(got, []string{"Austin"}) {
		t.Errorf("ListCities: got %v", got)
	}
}

func TestStatus(t *testing.T) {
	st := scenarioEngine().Status()
	if !st.Loaded || st.SnapshotID != "test" {
		t.Errorf("Status identity: got %+v", st)
	}
	if st.EpochCount != 2 || st.SightingCount != 3 || st.CountryCount != 1 {
		t.Errorf("Status counts: got %+v", st)
	}
}
