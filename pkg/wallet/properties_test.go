package wallet_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	migrate "github.com/goliatone/go-state-migrate"
	"github.com/goliatone/go-state-migrate/pkg/wallet"
	"github.com/goliatone/go-state-migrate/tree"
)

func propertyInputs(t *testing.T) map[string]map[string]any {
	t.Helper()
	return map[string]map[string]any{
		"empty":          {},
		"no main":        {"tray": map[string]any{"open": true}},
		"main not a map": {"main": "corrupted"},
		"v12":            loadState(t, "state_v12.json"),
		"v13":            loadState(t, "state_v13.json"),
		"malformed":      loadState(t, "state_malformed.json"),
		"unversioned": {"main": map[string]any{
			"networks": map[string]any{"ethereum": map[string]any{"1": map[string]any{"id": 1}}},
		}},
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	for name, input := range propertyInputs(t) {
		t.Run(name, func(t *testing.T) {
			once := apply(t, input)
			twice := apply(t, once)
			if !reflect.DeepEqual(once, twice) {
				t.Fatalf("second apply changed the tree:\nonce:  %v\ntwice: %v", once, twice)
			}
		})
	}
}

func TestApplyConvergesToLatestVersion(t *testing.T) {
	for name, input := range propertyInputs(t) {
		t.Run(name, func(t *testing.T) {
			out := apply(t, input)
			if got := migrate.VersionOf(out); got != wallet.VersionNativeCurrency {
				t.Fatalf("expected version %d, got %d", wallet.VersionNativeCurrency, got)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	for name, input := range propertyInputs(t) {
		t.Run(name, func(t *testing.T) {
			before := tree.Clone(input)
			_ = apply(t, input)
			if !reflect.DeepEqual(before, any(input)) {
				t.Fatalf("input mutated:\nbefore: %v\nafter:  %v", before, input)
			}
		})
	}
}

func TestApplyPreservesUntargetedLeaves(t *testing.T) {
	input := loadState(t, "state_v12.json")
	set(t, input, "main.networksMeta.ethereum.1", map[string]any{
		"gas": map[string]any{
			"price": map[string]any{"selected": "asap", "levels": map[string]any{"slow": "0x0a93"}},
			"fees":  map[string]any{"maxFeePerGas": "0x2"},
		},
	})
	out := apply(t, input)

	for path, value := range tree.Leaves(input) {
		if _, isMap := value.(map[string]any); isMap {
			continue
		}
		if path == "main._version" || value == wallet.PresetMatic {
			continue
		}
		got, ok := tree.Lookup(out, tree.SplitPath(path)...)
		if !ok {
			t.Fatalf("leaf %s removed", path)
		}
		if !reflect.DeepEqual(got, value) {
			t.Fatalf("leaf %s changed from %v to %v", path, value, got)
		}
	}
}

func TestApplyForwardCompatible(t *testing.T) {
	for _, version := range []any{15, 16, 99.0, "15"} {
		input := loadState(t, "state_v12.json")
		set(t, input, "main._version", version)
		input["tx"] = map[string]any{
			"seen": time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			"tags": []string{"a", "b"},
		}

		out := apply(t, input)

		if !reflect.DeepEqual(out, input) {
			t.Fatalf("version %v: expected tree unchanged\nwant: %v\n got: %v", version, input, out)
		}
	}
}

func TestApplyReportDescribesSteps(t *testing.T) {
	runner := newRunner(t)
	_, report, err := runner.ApplyWithReport(context.Background(), loadState(t, "state_v12.json"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if report.From != 12 || report.To != 15 {
		t.Fatalf("unexpected bounds %+v", report)
	}
	if !reflect.DeepEqual(report.Applied(), []int{13, 14, 15}) {
		t.Fatalf("unexpected applied versions %v", report.Applied())
	}
	step14 := report.Steps[1]
	if !contains(step14.Changed, "main.networks.ethereum.137.connection.primary.current") {
		t.Fatalf("expected polygon rewrite reported, got %v", step14.Changed)
	}
	if !contains(step14.Added, "main.networks.ethereum.42161.name") {
		t.Fatalf("expected arbitrum insertion reported, got %v", step14.Added)
	}
	if len(step14.Removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", step14.Removed)
	}

	pending := runner.Pending(loadState(t, "state_v13.json"))
	if len(pending) != 2 || pending[0].Version != 14 {
		t.Fatalf("unexpected pending %v", pending)
	}
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

func TestMigrationsRunUnderEveryEngine(t *testing.T) {
	want := apply(t, loadState(t, "state_v12.json"))

	for _, engine := range migrate.Engines() {
		t.Run(engine, func(t *testing.T) {
			evaluator, err := migrate.NewEvaluator(engine, nil, migrate.NewMemoryProgramCache())
			if err != nil {
				t.Fatalf("evaluator: %v", err)
			}
			runner, err := wallet.NewRunner(migrate.WithEvaluator(evaluator))
			if err != nil {
				t.Fatalf("runner: %v", err)
			}
			got, report, err := runner.ApplyWithReport(context.Background(), loadState(t, "state_v12.json"))
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if !reflect.DeepEqual(report.Applied(), []int{13, 14, 15}) {
				t.Fatalf("unexpected applied versions %v", report.Applied())
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("engine %s disagrees with the default:\nwant: %v\n got: %v", engine, want, got)
			}
		})
	}
}

func TestNativeCurrencyGuardSkipsTreesWithoutNetworks(t *testing.T) {
	runner := newRunner(t)
	out, report, err := runner.ApplyWithReport(context.Background(), map[string]any{
		"main": map[string]any{"_version": 14, "theme": "dark"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(report.Steps) != 1 || !report.Steps[0].Skipped {
		t.Fatalf("expected step 15 skipped, got %+v", report.Steps)
	}
	if migrate.VersionOf(out) != wallet.VersionNativeCurrency {
		t.Fatalf("expected version to converge, got %d", migrate.VersionOf(out))
	}
	if _, ok := tree.Lookup(out, "main", "networksMeta"); ok {
		t.Fatalf("expected no meta created, got %v", out)
	}
}
