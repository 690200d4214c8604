package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-state-migrate/tree"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

func skipUnavailable(t *testing.T, name string) {
	t.Helper()
	if name == "js" && !jsEvaluatorAvailable() {
		t.Skip("js evaluator requires the js_eval build tag")
	}
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	var out T
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode fixture %s: %v", name, err)
	}
	return out
}

type fakeProgramCache struct {
	entries map[string]any
	hits    int
	misses  int
}

func (c *fakeProgramCache) Get(key string) (any, bool) {
	if c.entries == nil {
		c.misses++
		return nil, false
	}
	value, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return value, ok
}

func (c *fakeProgramCache) Set(key string, value any) {
	if c.entries == nil {
		c.entries = map[string]any{}
	}
	c.entries[key] = value
}

type capturingEvaluator struct {
	contexts []RuleContext
	exprs    []string
	result   any
	err      error
}

func (c *capturingEvaluator) Evaluate(ctx RuleContext, expr string) (any, error) {
	c.contexts = append(c.contexts, ctx)
	c.exprs = append(c.exprs, expr)
	if c.err != nil {
		return nil, c.err
	}
	if c.result == nil {
		return true, nil
	}
	return c.result, nil
}

func (c *capturingEvaluator) Compile(string) (CompiledRule, error) {
	return nil, fmt.Errorf("capturing evaluator does not support compile")
}

// setStep returns a step that writes value at the dotted path.
func setStep(path string, value any) StepFunc {
	return func(_ StepContext, state map[string]any) (map[string]any, error) {
		tree.Set(state, value, tree.SplitPath(path)...)
		return state, nil
	}
}

func mustTable(t *testing.T, migrations ...Migration) *Table {
	t.Helper()
	table, err := NewTable(migrations...)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return table
}
