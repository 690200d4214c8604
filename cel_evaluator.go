package migrate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache reuses checked programs across evaluations.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registered functions by name, e.g.
// present(state, "main.networks"), and through call("name", args...). Names
// that clash with CEL builtins or macros are reachable through call only.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// celMaxCallArgs bounds the arity of the call overloads.
const celMaxCallArgs = 4

// celEvaluator runs expressions with cel-go. Every binding is declared as a
// dyn variable, so programs are type-checked against the names present in
// the tree rather than its shape. Cached programs are keyed by expression
// and the sorted variable names they were checked against.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Engine() string { return EngineCEL }

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	ctx = ctx.withDefaults()
	activation := ctx.bindings()
	activation["now"] = ctx.timestamp()
	activation["metadata"] = ctx.Metadata

	program, err := e.program(expression, variableNames(activation))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.label(), err)
	}
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.label(), err)
	}
	return out.Value(), nil
}

// Compile checks the syntax up front. Type checking waits for the first
// evaluation because variables come from the tree being migrated.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluationError("cel", expression, "", fmt.Errorf("expression must not be empty"))
	}
	env, err := e.env(nil)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	return celCompiledRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) program(expression string, variables []string) (celgo.Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	key := "cel:" + expression + "|" + strings.Join(variables, ",")
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.env(variables)
	if err != nil {
		return nil, err
	}
	checked, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEvaluator) env(variables []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("metadata", celgo.DynType),
	}
	for _, name := range variables {
		if name == "now" || name == "metadata" {
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", e.callOverloads()...))
		for _, name := range e.registry.Names() {
			if !celDeclarable(name) {
				continue
			}
			opts = append(opts, celgo.Function(name, e.namedOverloads(name)...))
		}
	}
	return celgo.NewEnv(opts...)
}

var (
	celIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	celMacros     = map[string]bool{
		"call": true, "has": true, "all": true, "exists": true,
		"exists_one": true, "map": true, "filter": true,
	}
	celBaseEnv = sync.OnceValue(func() *celgo.Env {
		env, _ := celgo.NewEnv()
		return env
	})
)

func celDeclarable(name string) bool {
	if !celIdentifier.MatchString(name) || celMacros[name] {
		return false
	}
	if base := celBaseEnv(); base != nil && base.HasFunction(name) {
		return false
	}
	return true
}

func variableNames(activation map[string]any) []string {
	names := make([]string, 0, len(activation))
	for name := range activation {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *celEvaluator) callOverloads() []celgo.FunctionOpt {
	overloads := make([]celgo.FunctionOpt, 0, celMaxCallArgs+1)
	for arity := 0; arity <= celMaxCallArgs; arity++ {
		argTypes := []*celgo.Type{celgo.StringType}
		for i := 0; i < arity; i++ {
			argTypes = append(argTypes, celgo.DynType)
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("call_string_dyn_%d", arity),
			argTypes,
			celgo.DynType,
			celgo.FunctionBinding(e.callRegistry),
		))
	}
	return overloads
}

func (e *celEvaluator) namedOverloads(name string) []celgo.FunctionOpt {
	binding := func(values ...ref.Val) ref.Val {
		return e.invoke(name, values)
	}
	overloads := make([]celgo.FunctionOpt, 0, celMaxCallArgs+1)
	for arity := 0; arity <= celMaxCallArgs; arity++ {
		argTypes := make([]*celgo.Type, arity)
		for i := range argTypes {
			argTypes[i] = celgo.DynType
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("%s_dyn_%d", name, arity),
			argTypes,
			celgo.DynType,
			celgo.FunctionBinding(binding),
		))
	}
	return overloads
}

func (e *celEvaluator) callRegistry(values ...ref.Val) ref.Val {
	if len(values) == 0 {
		return types.NewErr("migrate: call requires a function name")
	}
	name, ok := values[0].Value().(string)
	if !ok {
		return types.NewErr("migrate: call name must be a string")
	}
	return e.invoke(name, values[1:])
}

func (e *celEvaluator) invoke(name string, values []ref.Val) ref.Val {
	args := make([]any, 0, len(values))
	for _, val := range values {
		args = append(args, val.Value())
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}
