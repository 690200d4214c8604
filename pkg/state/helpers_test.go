package state_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	migrate "github.com/goliatone/go-state-migrate"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return raw
}

func copyFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, readFixture(t, name), 0o600); err != nil {
		t.Fatalf("write fixture copy: %v", err)
	}
	return path
}

func cmpJSON(want, got any) string {
	wantRaw, err := json.Marshal(want)
	if err != nil {
		return "marshal want: " + err.Error()
	}
	gotRaw, err := json.Marshal(got)
	if err != nil {
		return "marshal got: " + err.Error()
	}
	if string(wantRaw) == string(gotRaw) {
		return ""
	}
	return "want=" + string(wantRaw) + " got=" + string(gotRaw)
}

// labelRunner marks the tree at version 13 with a single key.
func labelRunner(t *testing.T) *migrate.Runner {
	t.Helper()
	table, err := migrate.NewTable(migrate.Migration{
		Version: 13,
		Name:    "label",
		Up: func(_ migrate.StepContext, state map[string]any) (map[string]any, error) {
			state["label"] = "migrated"
			return state, nil
		},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return migrate.New(table, migrate.WithRunIDGenerator(func() string { return "run-1" }))
}
