package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-state-migrate/tree"
	"gopkg.in/yaml.v3"
)

// Format names the encoding of a state file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from the file extension. Anything other than
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FileStore keeps the state document in a single file. Writes go to a
// temporary file in the same directory which is then renamed over the
// target.
type FileStore struct {
	Path   string
	Format Format
	// Perm is used when the file is created. Defaults to 0o600.
	Perm fs.FileMode

	mu sync.Mutex
}

// NewFileStore returns a store for path with the format taken from its
// extension.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, Format: FormatFor(path), Perm: 0o600}
}

func (s *FileStore) Load(ctx context.Context) (map[string]any, Meta, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) load(ctx context.Context) (map[string]any, Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, false, err
	}
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Meta{}, false, nil
	}
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: read %s: %w", s.Path, err)
	}

	decoded, err := s.decode(raw)
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: decode %s: %w", s.Path, err)
	}
	etag, err := ETag(decoded)
	if err != nil {
		return nil, Meta{}, false, err
	}
	meta := Meta{ETag: etag}
	if info, err := os.Stat(s.Path); err == nil {
		meta.UpdatedAt = info.ModTime().UTC()
	}
	return decoded, meta, true, nil
}

func (s *FileStore) Save(ctx context.Context, state map[string]any, meta Meta) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, current, ok, err := s.load(ctx)
	if err != nil {
		return Meta{}, err
	}
	if ok {
		if err := checkETag(meta.ETag, current.ETag); err != nil {
			return Meta{}, err
		}
	}

	state = tree.NormalizeMap(state)
	raw, err := s.encode(state)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %s: %w", s.Path, err)
	}
	if err := s.writeAtomic(raw); err != nil {
		return Meta{}, err
	}

	etag, err := ETag(state)
	if err != nil {
		return Meta{}, err
	}
	saved := cloneMeta(meta)
	saved.ETag = etag
	if info, err := os.Stat(s.Path); err == nil {
		saved.UpdatedAt = info.ModTime().UTC()
	}
	return saved, nil
}

func (s *FileStore) format() Format {
	if s.Format == "" {
		return FormatFor(s.Path)
	}
	return s.Format
}

func (s *FileStore) decode(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var decoded any
	switch s.format() {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
	}
	if decoded == nil {
		return map[string]any{}, nil
	}
	root, ok := tree.Normalize(decoded).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("root must be a mapping, got %T", decoded)
	}
	return root, nil
}

func (s *FileStore) encode(state map[string]any) ([]byte, error) {
	switch s.format() {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		raw, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(raw, '\n'), nil
	}
}

func (s *FileStore) writeAtomic(raw []byte) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("state: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("state: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("state: close %s: %w", tmpName, err)
	}
	perm := s.Perm
	if perm == 0 {
		perm = 0o600
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("state: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		cleanup()
		return fmt.Errorf("state: rename %s: %w", tmpName, err)
	}
	return nil
}
