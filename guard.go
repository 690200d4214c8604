package migrate

import (
	"errors"
	"fmt"
)

// ErrNoEvaluator is returned when an expression needs evaluating but no
// evaluator is available.
var ErrNoEvaluator = errors.New("migrate: evaluator not configured")

// ErrGuardResult is returned when a guard expression does not produce a bool.
var ErrGuardResult = errors.New("migrate: guard must evaluate to a bool")

// Evaluate runs expr against state with the runner's evaluator. Top-level
// keys of state are bound as variables alongside vars.
func (r *Runner) Evaluate(state map[string]any, expr string, vars map[string]any) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("migrate: expression must not be empty")
	}
	if r.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	ctx := RuleContext{Snapshot: state, Vars: vars, Label: "evaluate"}.withDefaults()
	value, err := r.evaluator.Evaluate(ctx, expr)
	if err != nil {
		return nil, wrapEvaluationError(evaluatorEngineName(r.evaluator), expr, ctx.label(), err)
	}
	return value, nil
}

// guard evaluates mig.When. Besides the tree's top-level keys the expression
// sees version (the stored version), target (mig.Version), state (the whole
// tree) and metadata (run_id, step, version).
func (r *Runner) guard(runID string, mig Migration, from int, state map[string]any) (bool, error) {
	if r.evaluator == nil {
		return false, ErrNoEvaluator
	}
	ctx := RuleContext{
		Snapshot: state,
		Vars: map[string]any{
			"version": from,
			"target":  mig.Version,
			"state":   state,
		},
		Metadata: stepMetadata(runID, mig.Version, mig.Name),
		Label:    guardLabel(mig),
	}.withDefaults()
	engine := evaluatorEngineName(r.evaluator)
	value, err := r.evaluator.Evaluate(ctx, mig.When)
	if err != nil {
		return false, wrapEvaluationError(engine, mig.When, ctx.label(), err)
	}
	ok, isBool := value.(bool)
	if !isBool {
		return false, wrapEvaluationError(engine, mig.When, ctx.label(), fmt.Errorf("%w, got %T", ErrGuardResult, value))
	}
	return ok, nil
}

func stepMetadata(runID string, version int, name string) map[string]any {
	return map[string]any{
		"run_id":  runID,
		"step":    name,
		"version": version,
	}
}

func guardLabel(mig Migration) string {
	if mig.Name != "" {
		return fmt.Sprintf("guard:%d:%s", mig.Version, mig.Name)
	}
	return fmt.Sprintf("guard:%d", mig.Version)
}

func defaultEvaluator(cfg runnerConfig) Evaluator {
	evaluator, _ := NewEvaluator(EngineExpr, cfg.functions, cfg.programCache)
	return evaluator
}
