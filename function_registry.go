package migrate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-state-migrate/tree"
)

// Function is a helper callable from guard and rewrite expressions.
type Function func(args ...any) (any, error)

var (
	// ErrFunctionExists is returned when a name is registered twice.
	ErrFunctionExists = errors.New("migrate: function already registered")
	// ErrFunctionUnknown is returned when calling a name nobody registered.
	ErrFunctionUnknown = errors.New("migrate: function not registered")
)

// FunctionRegistry maps case-insensitive names to functions. It is safe for
// concurrent use.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

func functionKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds fn under name. Names are matched without regard to case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := functionKey(name)
	switch {
	case key == "":
		return fmt.Errorf("migrate: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("migrate: function %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	if _, taken := r.functions[key]; taken {
		return fmt.Errorf("%w: %s", ErrFunctionExists, name)
	}
	r.functions[key] = fn
	return nil
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionUnknown, name)
	}
	return fn(args...)
}

func (r *FunctionRegistry) lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[functionKey(name)]
	return fn, ok
}

// Clone copies the registry so later registrations do not leak between
// runners. A nil registry clones to nil.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	functions := make(map[string]Function, len(r.functions))
	for key, fn := range r.functions {
		functions[key] = fn
	}
	return &FunctionRegistry{functions: functions}
}

// Names lists the registered names, lower-cased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for key := range r.functions {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes the functions in registry to guard and rewrite
// expressions evaluated by the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *runnerConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the runner's expressions.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *runnerConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// DefaultFunctions returns a registry with the tree helpers available to every
// guard and rewrite expression:
//
//	lookup(node, "networks.ethereum.137.name") returns the value or nil
//	present(node, "networksMeta.ethereum.1.gas") reports whether the path exists
func DefaultFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("lookup", func(args ...any) (any, error) {
		node, path, err := treePathArgs("lookup", args)
		if err != nil {
			return nil, err
		}
		value, _ := tree.Lookup(node, tree.SplitPath(path)...)
		return value, nil
	})
	_ = registry.Register("present", func(args ...any) (any, error) {
		node, path, err := treePathArgs("present", args)
		if err != nil {
			return nil, err
		}
		_, ok := tree.Lookup(node, tree.SplitPath(path)...)
		return ok, nil
	})
	return registry
}

func treePathArgs(name string, args []any) (any, string, error) {
	if len(args) != 2 {
		return nil, "", fmt.Errorf("migrate: %s expects (node, path), got %d arguments", name, len(args))
	}
	path, ok := args[1].(string)
	if !ok {
		return nil, "", fmt.Errorf("migrate: %s path must be a string, got %T", name, args[1])
	}
	return args[0], path, nil
}

// merged returns a registry holding the functions of r plus those of other
// that r does not define. Either may be nil.
func (r *FunctionRegistry) merged(other *FunctionRegistry) *FunctionRegistry {
	out := r.Clone()
	if out == nil {
		out = NewFunctionRegistry()
	}
	if other == nil {
		return out
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	for name, fn := range other.functions {
		if _, exists := out.functions[name]; !exists {
			out.functions[name] = fn
		}
	}
	return out
}
