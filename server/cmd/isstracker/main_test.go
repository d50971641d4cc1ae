package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/isstracker/isstracker/server/internal/query"
	"github.com/isstracker/isstracker/server/internal/source"
)

const (
	epochFixture    = "../../internal/source/testdata/epochs.xml"
	sightingFixture = "../../internal/source/testdata/sightings.xml"
)

func writeConfig(t *testing.T, epochs, sightings string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  sources:\n    epochs:\n      location: " + epochs +
		"\n    sightings:\n      location: " + sightings + "\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := writeConfig(t, epochFixture, sightingFixture)
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfg, "--env-file", "", "--loglevel", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func outLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestQuery_Epochs(t *testing.T) {
	out, err := run(t, "query", "epochs")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"2022-057T12:00:00.000Z", "2022-057T12:04:00.000Z"}
	got := outLines(out)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("epochs: got %v, want %v", got, want)
	}
}

func TestQuery_Epoch(t *testing.T) {
	out, err := run(t, "query", "epochs", "2022-057T12:04:00.000Z")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("unmarshal: %v (out: %s)", err, out)
	}
	if rec["EPOCH"] != "2022-057T12:04:00.000Z" {
		t.Errorf("EPOCH: got %v", rec["EPOCH"])
	}
}

func TestQuery_EpochNotFound(t *testing.T) {
	_, err := run(t, "query", "epochs", "2022-001T00:00:00.000Z")
	if !errors.Is(err, query.ErrNotFound) {
		t.Fatalf("err: got %v, want ErrNotFound", err)
	}
}

func TestQuery_Hierarchy(t *testing.T) {
	out, err := run(t, "query", "regions", "United_States")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	regions := outLines(out)
	sort.Strings(regions)
	if strings.Join(regions, ",") != "California,Texas" {
		t.Errorf("regions: got %v", regions)
	}

	out, err = run(t, "query", "sightings", "United_States", "California", "Fremont")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var res map[string][]map[string]interface{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res["Fremont"]) != 1 {
		t.Errorf("sightings: got %v", res)
	}
}

func TestQuery_Status(t *testing.T) {
	out, err := run(t, "query", "status")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var st query.Status
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !st.Loaded || st.EpochCount != 2 || st.SightingCount != 3 || st.CountryCount != 1 {
		t.Errorf("status: got %+v", st)
	}
}

func TestQuery_SourceUnavailable(t *testing.T) {
	cfg := writeConfig(t, "/nonexistent/epochs.xml", sightingFixture)
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfg, "--env-file", "", "--loglevel", "error", "query", "countries"})
	if err := root.Execute(); !errors.Is(err, source.ErrSourceUnavailable) {
		t.Fatalf("err: got %v, want ErrSourceUnavailable", err)
	}
}

func TestSetupLogger_UnknownLevel(t *testing.T) {
	if err := setupLogger(&bytes.Buffer{}, "verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
