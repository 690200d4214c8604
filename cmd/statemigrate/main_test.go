package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	migrate "github.com/goliatone/go-state-migrate"
	"github.com/goliatone/go-state-migrate/pkg/wallet"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func copyFixture(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func readState(t *testing.T, path string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return out
}

func TestApplyMigratesStateFile(t *testing.T) {
	path := copyFixture(t, "state_v12.json")
	reportPath := filepath.Join(t.TempDir(), "report.json")

	stdout, stderr, err := execute(t, "apply", "--state", path, "--report", reportPath)
	if err != nil {
		t.Fatalf("apply: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "migrated "+path+" from version 12 to 15") {
		t.Fatalf("unexpected summary %q", stdout)
	}
	if got := migrate.VersionOf(readState(t, path)); got != 15 {
		t.Fatalf("expected saved version 15, got %d", got)
	}

	raw, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	report, err := migrate.ReportFromJSON(raw)
	if err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !reflect.DeepEqual(report.Applied(), []int{13, 14, 15}) {
		t.Fatalf("unexpected applied versions %v", report.Applied())
	}
	if !strings.Contains(stderr, `"msg":"activity"`) || !strings.Contains(stderr, `"verb":"state.migrated"`) {
		t.Fatalf("expected activity logged, got %s", stderr)
	}

	stdout, _, err = execute(t, "apply", "--state", path)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if !strings.Contains(stdout, "is up to date at version 15") {
		t.Fatalf("expected up to date summary, got %q", stdout)
	}
}

func TestApplyDryRunLeavesFile(t *testing.T) {
	path := copyFixture(t, "state_v12.json")
	before, _ := os.ReadFile(path)

	stdout, _, err := execute(t, "apply", "--dry-run", "--report", "-", "--state", path)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(stdout, "would migrate") || !strings.Contains(stdout, `"run_id"`) {
		t.Fatalf("unexpected output %q", stdout)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatalf("dry run modified the state file")
	}
}

func TestApplyCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.json")
	if _, _, err := execute(t, "apply", "--state", path); err != nil {
		t.Fatalf("apply: %v", err)
	}
	state := readState(t, path)
	if migrate.VersionOf(state) != 15 {
		t.Fatalf("expected new file at version 15, got %v", state)
	}
}

func TestApplyWithEngine(t *testing.T) {
	expected := copyFixture(t, "state_v12.json")
	if _, _, err := execute(t, "apply", "--state", expected); err != nil {
		t.Fatalf("apply with default engine: %v", err)
	}

	path := copyFixture(t, "state_v12.json")
	if _, stderr, err := execute(t, "apply", "--state", path, "--engine", "cel"); err != nil {
		t.Fatalf("apply with cel: %v\n%s", err, stderr)
	}
	if !reflect.DeepEqual(readState(t, path), readState(t, expected)) {
		t.Fatalf("cel engine produced a different tree")
	}

	t.Setenv("STATEMIGRATE_ENGINE", "rego")
	_, _, err := execute(t, "status", "--state", path)
	if !errors.Is(err, migrate.ErrUnknownEngine) {
		t.Fatalf("expected unknown engine from env, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	path := copyFixture(t, "state_v12.json")
	stdout, _, err := execute(t, "status", "--state", path)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"version: 12", "latest:  15", "pending: 13, 14, 15", "14 polygon provider and arbitrum"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in %q", want, stdout)
		}
	}

	stdout, _, err = execute(t, "status", "--state", filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "(missing)") || !strings.Contains(stdout, "version: 0") {
		t.Fatalf("unexpected status for missing file %q", stdout)
	}
}

func TestNetworksJSON(t *testing.T) {
	path := copyFixture(t, "state_v12.json")
	stdout, _, err := execute(t, "networks", "--json", "--state", path)
	if err != nil {
		t.Fatalf("networks: %v", err)
	}
	var networks []wallet.Network
	if err := json.Unmarshal([]byte(stdout), &networks); err != nil {
		t.Fatalf("decode networks: %v\n%s", err, stdout)
	}
	if len(networks) != 3 {
		t.Fatalf("expected 3 networks, got %d", len(networks))
	}
	polygon, arbitrum := networks[1], networks[2]
	if polygon.ID != wallet.ChainPolygon || polygon.Connection.Primary.Current != wallet.PresetInfura {
		t.Fatalf("expected polygon provider rewritten, got %+v", polygon)
	}
	if arbitrum.ID != wallet.ChainArbitrum || arbitrum.On {
		t.Fatalf("expected disabled arbitrum, got %+v", arbitrum)
	}

	before, _ := os.ReadFile(path)
	if migrate.VersionOf(readState(t, path)) != 12 || len(before) == 0 {
		t.Fatalf("networks must not persist the migration")
	}
}

func TestNetworksTable(t *testing.T) {
	path := copyFixture(t, "state_v12.json")
	stdout, _, err := execute(t, "networks", "--state", path)
	if err != nil {
		t.Fatalf("networks: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "TYPE") {
		t.Fatalf("unexpected table %q", stdout)
	}
	if !strings.Contains(lines[3], "Arbitrum") {
		t.Fatalf("expected arbitrum row, got %q", lines[3])
	}
}

func TestSchema(t *testing.T) {
	path := copyFixture(t, "state_v12.json")
	stdout, _, err := execute(t, "schema", "--state", path)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	for _, want := range []string{"main._version", "main.networksMeta.ethereum.1.gas.price.selected", "tray.open"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in %q", want, stdout)
		}
	}

	stdout, _, err = execute(t, "schema", "--raw", "--state", path)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if strings.Contains(stdout, "gas.price.selected") {
		t.Fatalf("raw schema should describe the stored tree, got %q", stdout)
	}
}

func TestOptionsFromEnvAndConfig(t *testing.T) {
	path := copyFixture(t, "state_v12.json")

	t.Setenv("STATEMIGRATE_STATE", path)
	stdout, _, err := execute(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "state:   "+path) {
		t.Fatalf("expected state path from env, got %q", stdout)
	}

	t.Setenv("STATEMIGRATE_STATE", "")
	other := copyFixture(t, "state_v12.json")
	configPath := filepath.Join(t.TempDir(), "statemigrate.yaml")
	config := "state: " + other + "\nlog:\n  level: debug\n"
	if err := os.WriteFile(configPath, []byte(config), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	stdout, stderr, err := execute(t, "apply", "--dry-run", "--config", configPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(stdout, other) {
		t.Fatalf("expected state path from config, got %q", stdout)
	}
	if !strings.Contains(stderr, `"level":"DEBUG"`) {
		t.Fatalf("expected debug logs from config level, got %q", stderr)
	}

	stdout, _, err = execute(t, "status", "--config", configPath, "--state", path)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "state:   "+path) {
		t.Fatalf("expected flag to override config, got %q", stdout)
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	_, _, err := execute(t, "status", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected missing config error")
	}
}
