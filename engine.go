package migrate

import (
	"errors"
	"fmt"
	"strings"
)

// Bundled evaluator engines.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var (
	// ErrUnknownEngine is returned by NewEvaluator for names it does not know.
	ErrUnknownEngine = errors.New("migrate: unknown evaluator engine")
	// ErrEngineUnavailable is returned for the js engine when the binary was
	// built without the js_eval tag.
	ErrEngineUnavailable = errors.New("migrate: evaluator engine not available in this build")
)

// engineNamer is implemented by evaluators that label their errors and
// logs with an engine name. Custom evaluators may implement it too.
type engineNamer interface {
	Engine() string
}

// Engines lists the engine names NewEvaluator accepts in this build.
func Engines() []string {
	engines := []string{EngineExpr, EngineCEL}
	if jsEvaluatorAvailable() {
		engines = append(engines, EngineJS)
	}
	return engines
}

// NewEvaluator builds a bundled evaluator by name. An empty name selects
// expr. The tree helpers of DefaultFunctions are always available and
// functions in registry take precedence over them. registry and cache may
// be nil.
func NewEvaluator(engine string, registry *FunctionRegistry, cache ProgramCache) (Evaluator, error) {
	functions := registry.merged(DefaultFunctions())
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(
			ExprWithFunctionRegistry(functions),
			ExprWithProgramCache(cache),
		), nil
	case EngineCEL:
		return NewCELEvaluator(
			CELWithFunctionRegistry(functions),
			CELWithProgramCache(cache),
		), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: %s (build with -tags js_eval)", ErrEngineUnavailable, EngineJS)
		}
		return NewJSEvaluator(
			JSWithFunctionRegistry(functions),
			JSWithProgramCache(cache),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		if name := named.Engine(); name != "" {
			return name
		}
	}
	return "custom"
}
