package migrate

import (
	"errors"
	"fmt"
	"sort"
)

// Migration pairs a target schema version with the step that upgrades a tree
// from the previous version to it.
type Migration struct {
	Version int
	Name    string
	// When is an optional guard expression. A guard that evaluates to false
	// skips the step; the tree still converges to the table's latest version.
	When string
	Up   StepFunc
}

var (
	// ErrVersionRequired indicates a migration without a positive version.
	ErrVersionRequired = errors.New("migrate: version must be positive")
	// ErrStepRequired indicates a migration without an Up step.
	ErrStepRequired = errors.New("migrate: step must be provided")
	// ErrDuplicateVersion indicates Table construction received multiple
	// migrations with the same version.
	ErrDuplicateVersion = errors.New("migrate: versions must be unique")
)

// Table is an immutable set of migrations ordered by ascending version.
type Table struct {
	migrations []Migration
}

// NewTable validates and sorts the supplied migrations so that the lowest
// version comes first. Gaps between versions are allowed.
func NewTable(migrations ...Migration) (*Table, error) {
	if len(migrations) == 0 {
		return &Table{}, nil
	}

	seen := make(map[int]struct{}, len(migrations))
	copied := make([]Migration, len(migrations))
	for i, mig := range migrations {
		if mig.Version <= BaselineVersion {
			return nil, fmt.Errorf("%w: %d (%s)", ErrVersionRequired, mig.Version, mig.Name)
		}
		if mig.Up == nil {
			return nil, fmt.Errorf("%w: version %d (%s)", ErrStepRequired, mig.Version, mig.Name)
		}
		if _, ok := seen[mig.Version]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateVersion, mig.Version)
		}
		seen[mig.Version] = struct{}{}
		copied[i] = mig
	}

	sort.Slice(copied, func(i, j int) bool {
		return copied[i].Version < copied[j].Version
	})

	return &Table{migrations: copied}, nil
}

// Migrations returns a copy of the ordered migrations.
func (t *Table) Migrations() []Migration {
	if t == nil || len(t.migrations) == 0 {
		return nil
	}
	out := make([]Migration, len(t.migrations))
	copy(out, t.migrations)
	return out
}

// Len returns the number of migrations in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.migrations)
}

// Latest returns the highest version in the table, or BaselineVersion when
// the table is empty.
func (t *Table) Latest() int {
	if t == nil || len(t.migrations) == 0 {
		return BaselineVersion
	}
	return t.migrations[len(t.migrations)-1].Version
}

// Pending returns, in ascending order, the migrations whose version is
// strictly greater than current.
func (t *Table) Pending(current int) []Migration {
	if t == nil {
		return nil
	}
	idx := sort.Search(len(t.migrations), func(i int) bool {
		return t.migrations[i].Version > current
	})
	if idx == len(t.migrations) {
		return nil
	}
	out := make([]Migration, len(t.migrations)-idx)
	copy(out, t.migrations[idx:])
	return out
}
