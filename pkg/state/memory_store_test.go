package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-state-migrate/pkg/state"
)

func TestMemoryStoreLoadMissing(t *testing.T) {
	store := state.NewMemoryStore()
	got, meta, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok || got != nil || meta.ETag != "" {
		t.Fatalf("expected empty load, got ok=%t state=%v meta=%+v", ok, got, meta)
	}
}

func TestMemoryStoreClonesInAndOut(t *testing.T) {
	store := state.NewMemoryStore()
	doc := map[string]any{"main": map[string]any{"_version": 13}}
	saved, err := store.Save(context.Background(), doc, state.Meta{Extra: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ETag == "" || saved.UpdatedAt.IsZero() {
		t.Fatalf("expected etag and timestamp, got %+v", saved)
	}

	doc["main"].(map[string]any)["_version"] = 99

	loaded, meta, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if diff := cmpJSON(map[string]any{"main": map[string]any{"_version": 13}}, loaded); diff != "" {
		t.Fatalf("stored document aliased caller map: %s", diff)
	}
	if meta.ETag != saved.ETag || meta.Extra["k"] != "v" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	loaded["main"] = "mutated"
	again, _, _, _ := store.Load(context.Background())
	if _, ok := again["main"].(map[string]any); !ok {
		t.Fatalf("loaded document aliased stored map: %v", again)
	}
}

func TestMemoryStoreRejectsStaleETag(t *testing.T) {
	store, err := state.NewMemoryStoreWith(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, first, _, _ := store.Load(context.Background())

	if _, err := store.Save(context.Background(), map[string]any{"a": 2}, first); err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	_, err = store.Save(context.Background(), map[string]any{"a": 3}, first)
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
	if _, err := store.Save(context.Background(), map[string]any{"a": 4}, state.Meta{}); err != nil {
		t.Fatalf("save without etag: %v", err)
	}
}

func TestETagIsContentHash(t *testing.T) {
	a, err := state.ETag(map[string]any{"x": 1, "y": map[string]any{"z": true}})
	if err != nil {
		t.Fatalf("etag: %v", err)
	}
	b, _ := state.ETag(map[string]any{"y": map[string]any{"z": true}, "x": 1})
	c, _ := state.ETag(map[string]any{"x": 2})
	if a != b {
		t.Fatalf("expected key order not to matter")
	}
	if a == c {
		t.Fatalf("expected different content to differ")
	}
}
