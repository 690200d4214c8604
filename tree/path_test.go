package tree

import (
	"reflect"
	"testing"
)

func TestLookupToleratesMissingAndMistypedNodes(t *testing.T) {
	root := map[string]any{
		"main": map[string]any{
			"networks": map[string]any{
				"ethereum": map[string]any{"1": map[string]any{"name": "Mainnet"}},
			},
			"networksMeta": "garbage",
		},
	}

	cases := []struct {
		name string
		path []string
		ok   bool
	}{
		{name: "present", path: []string{"main", "networks", "ethereum", "1", "name"}, ok: true},
		{name: "missing leaf", path: []string{"main", "networks", "ethereum", "1", "symbol"}, ok: false},
		{name: "missing intermediate", path: []string{"main", "connection", "primary"}, ok: false},
		{name: "scalar intermediate", path: []string{"main", "networksMeta", "ethereum"}, ok: false},
		{name: "empty path returns root", path: nil, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := Lookup(root, tc.path...); ok != tc.ok {
				t.Fatalf("Lookup(%v) ok=%v, want %v", tc.path, ok, tc.ok)
			}
		})
	}

	if _, ok := Lookup(nil, "main"); ok {
		t.Fatalf("expected lookup on nil root to fail")
	}
}

func TestEnsureMapCreatesAndRepairs(t *testing.T) {
	root := map[string]any{"main": map[string]any{"networksMeta": "garbage"}}

	meta := EnsureMap(root, "main", "networksMeta", "ethereum", "1")
	meta["gas"] = map[string]any{}

	if _, ok := Map(root, "main", "networksMeta", "ethereum", "1", "gas"); !ok {
		t.Fatalf("expected nested mapping to be reachable from root: %#v", root)
	}
}

func TestSetAndSplitPath(t *testing.T) {
	root := map[string]any{}
	Set(root, 13, SplitPath("main._version")...)

	if got, ok := Lookup(root, "main", "_version"); !ok || got != 13 {
		t.Fatalf("expected version 13, got %v (ok=%v)", got, ok)
	}
	if got := JoinPath("main", "_version"); got != "main._version" {
		t.Fatalf("unexpected joined path %q", got)
	}
	if SplitPath("") != nil {
		t.Fatalf("expected empty path to split into nil")
	}

	Set(root, "ignored")
	if len(root) != 1 {
		t.Fatalf("expected Set with empty path to be a no-op: %#v", root)
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]any{"42161": 1, "1": 1, "137": 1})
	want := []string{"1", "137", "42161"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
