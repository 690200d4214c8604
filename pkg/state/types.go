package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	migrate "github.com/goliatone/go-state-migrate"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	ETag      string            `json:"etag,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Store loads and saves the state document.
type Store interface {
	Load(ctx context.Context) (state map[string]any, meta Meta, ok bool, err error)
	Save(ctx context.Context, state map[string]any, meta Meta) (Meta, error)
}

// Migrator upgrades a state tree. *migrate.Runner satisfies it.
type Migrator interface {
	ApplyWithReport(ctx context.Context, state map[string]any) (map[string]any, migrate.Report, error)
}

// Upgrader brings the persisted state up to the migrator's latest version.
type Upgrader struct {
	Store    Store
	Migrator Migrator
}

// Upgrade loads the document (an empty tree when none exists yet), migrates
// it and saves the result when the pass moved the version or ran a step.
// The returned Meta is the saved one, or the loaded one when nothing changed.
func (u Upgrader) Upgrade(ctx context.Context) (map[string]any, migrate.Report, Meta, error) {
	if u.Store == nil {
		return nil, migrate.Report{}, Meta{}, fmt.Errorf("state: store is required")
	}
	if u.Migrator == nil {
		return nil, migrate.Report{}, Meta{}, fmt.Errorf("state: migrator is required")
	}

	loaded, meta, ok, err := u.Store.Load(ctx)
	if err != nil {
		return nil, migrate.Report{}, Meta{}, fmt.Errorf("state: load: %w", err)
	}
	if !ok || loaded == nil {
		loaded = map[string]any{}
		meta = Meta{}
	}

	upgraded, report, err := u.Migrator.ApplyWithReport(ctx, loaded)
	if err != nil {
		return nil, report, meta, fmt.Errorf("state: upgrade from version %d: %w", report.From, err)
	}
	if !report.Changed() {
		return upgraded, report, meta, nil
	}

	saveMeta := cloneMeta(meta)
	saveMeta.Extra = withExtra(saveMeta.Extra, "migration_run_id", report.RunID)
	saved, err := u.Store.Save(ctx, upgraded, saveMeta)
	if err != nil {
		return nil, report, meta, fmt.Errorf("state: save: %w", err)
	}
	return upgraded, report, saved, nil
}

// ETag returns the content hash stores use for state.
func ETag(state map[string]any) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("state: etag: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func checkETag(expected, current string) error {
	if expected == "" || current == "" || expected == current {
		return nil
	}
	return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected, current)
}

func withExtra(extra map[string]string, key, value string) map[string]string {
	if value == "" {
		return extra
	}
	if extra == nil {
		extra = map[string]string{}
	}
	extra[key] = value
	return extra
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
