package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dir, DBFile)); err != nil {
		t.Errorf("database file missing: %v", err)
	}
	if store.Path() != filepath.Join(dir, DBFile) {
		t.Errorf("Path() = %q", store.Path())
	}
}

func TestRecordAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	entries := []Entry{
		{Kind: KindConnect, Target: "192.168.1.5:5555", Success: true, Message: "Connected to 192.168.1.5:5555", StartedAt: base},
		{Kind: KindInstall, DeviceID: "ABC123", Success: false, Message: "Failure [INSTALL_FAILED]", StartedAt: base.Add(time.Second),
			Details: json.RawMessage(`{"exitCode":1,"argv":["-s","ABC123","install","-r","app.apk"]}`)},
		{Kind: KindPair, Target: "192.168.1.5:4711", Success: true, Message: "Paired with 192.168.1.5:4711", StartedAt: base.Add(2 * time.Second),
			Duration: 1500 * time.Millisecond},
	}
	for i := range entries {
		if err := store.Record(ctx, &entries[i]); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if entries[i].ID == "" {
			t.Fatal("Record should assign an ID")
		}
	}

	got, err := store.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(got))
	}
	if got[0].Kind != KindPair || got[2].Kind != KindConnect {
		t.Errorf("entries not newest first: %v, %v, %v", got[0].Kind, got[1].Kind, got[2].Kind)
	}
	if got[0].Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got[0].Duration)
	}
	if got[1].Detail("exitCode").Int() != 1 {
		t.Errorf("exitCode detail = %v", got[1].Detail("exitCode"))
	}
	if got[1].Detail("argv.2").String() != "install" {
		t.Errorf("argv.2 detail = %v", got[1].Detail("argv.2"))
	}
	if got[2].Detail("exitCode").Exists() {
		t.Error("empty details should have no exitCode")
	}
}

func TestListFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, e := range []Entry{
		{Kind: KindInstall, DeviceID: "ABC123", Success: true},
		{Kind: KindInstall, DeviceID: "XYZ9", Success: true},
		{Kind: KindConnect, Target: "10.0.0.2:5555"},
		{Kind: KindInstall, DeviceID: "ABC123"},
	} {
		if err := store.Record(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{"all", Query{}, 4},
		{"by kind", Query{Kind: KindInstall}, 3},
		{"by device", Query{Device: "ABC123"}, 2},
		{"kind and device", Query{Kind: KindConnect, Device: "ABC123"}, 0},
		{"limit", Query{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestRecordValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, &Entry{}); err == nil {
		t.Error("missing kind should fail")
	}
	if err := store.Record(ctx, &Entry{Kind: KindInstall, Details: json.RawMessage(`{bad`)}); err == nil {
		t.Error("invalid details should fail")
	}
}

func TestPrune(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	old := Entry{Kind: KindConnect, StartedAt: time.Now().Add(-40 * 24 * time.Hour)}
	recent := Entry{Kind: KindConnect, StartedAt: time.Now().Add(-time.Hour)}
	for _, e := range []*Entry{&old, &recent} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	got, _ := store.List(ctx, Query{})
	if len(got) != 1 || got[0].ID != recent.ID {
		t.Errorf("remaining = %+v", got)
	}

	if removed, _ := store.Prune(ctx, 0); removed != 0 {
		t.Errorf("zero retention should keep everything, removed %d", removed)
	}
}

func TestListEmpty(t *testing.T) {
	store := setupTestStore(t)
	got, err := store.List(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty non-nil", got)
	}
}

func TestEntryExitCode(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    string
	}{
		{"success", `{"argv":["devices"],"exitCode":0}`, "0"},
		{"failure", `{"exitCode":1}`, "1"},
		{"not started", `{"exitCode":-1}`, "-1"},
		{"missing", `{"argv":["pair","10.0.0.2:4711"]}`, "-"},
		{"no details", ``, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Details: []byte(tt.details)}
			if got := e.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %q, want %q", got, tt.want)
			}
		})
	}
}
