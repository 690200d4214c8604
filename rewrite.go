package migrate

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-state-migrate/tree"
)

// ErrRuleCondition is returned for a rewrite rule that names neither From
// nor When, which would overwrite every matching node.
var ErrRuleCondition = errors.New("migrate: rewrite rule needs From or When")

// RewriteRule replaces the value of matching nodes.
type RewriteRule struct {
	// Pattern is a dotted path where "*" matches any key at that level.
	Pattern string
	// From, when non-nil, restricts the rule to nodes equal to it.
	From any
	// To is the replacement value. It is copied for every match.
	To any
	// When is an optional expression with the variables value, path (dotted),
	// captures (keys matched by each "*" in order) and metadata (run_id,
	// step, version) plus the top-level keys of the tree.
	When string
}

// Validate reports authoring mistakes in the rule.
func (r RewriteRule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("migrate: rewrite rule pattern must not be empty")
	}
	if r.From == nil && r.When == "" {
		return fmt.Errorf("%w: %s", ErrRuleCondition, r.Pattern)
	}
	return nil
}

// Rewrite returns a step that applies rules in order. Only matching nodes
// change; siblings and unmatched paths are left alone and nothing is created.
func Rewrite(rules ...RewriteRule) StepFunc {
	return func(ctx StepContext, state map[string]any) (map[string]any, error) {
		for _, rule := range rules {
			if err := rule.Validate(); err != nil {
				return nil, err
			}
			if err := applyRewrite(ctx, rule, state); err != nil {
				return nil, err
			}
		}
		return state, nil
	}
}

func applyRewrite(ctx StepContext, rule RewriteRule, state map[string]any) error {
	return tree.Walk(state, tree.SplitPath(rule.Pattern), func(match tree.Match) error {
		if rule.From != nil && !reflect.DeepEqual(match.Value, rule.From) {
			return nil
		}
		if rule.When != "" {
			ok, err := rewriteCondition(ctx, rule, state, match)
			if err != nil || !ok {
				return err
			}
		}
		match.Parent[match.Key] = tree.Clone(rule.To)
		return nil
	})
}

func rewriteCondition(ctx StepContext, rule RewriteRule, state map[string]any, match tree.Match) (bool, error) {
	if ctx.Evaluator == nil {
		return false, ErrNoEvaluator
	}
	captures := match.Captures
	if captures == nil {
		captures = []string{}
	}
	ruleCtx := RuleContext{
		Snapshot: state,
		Vars: map[string]any{
			"value":    match.Value,
			"path":     tree.JoinPath(match.Path...),
			"captures": captures,
		},
		Metadata: stepMetadata(ctx.RunID, ctx.Version, ctx.Name),
		Label:    "rewrite:" + rule.Pattern,
	}.withDefaults()
	engine := evaluatorEngineName(ctx.Evaluator)
	value, err := ctx.Evaluator.Evaluate(ruleCtx, rule.When)
	if err != nil {
		return false, wrapEvaluationError(engine, rule.When, ruleCtx.label(), err)
	}
	ok, isBool := value.(bool)
	if !isBool {
		return false, wrapEvaluationError(engine, rule.When, ruleCtx.label(), fmt.Errorf("rewrite condition must evaluate to a bool, got %T", value))
	}
	return ok, nil
}

// Chain runs steps in order as a single step.
func Chain(steps ...StepFunc) StepFunc {
	return func(ctx StepContext, state map[string]any) (map[string]any, error) {
		for _, step := range steps {
			if step == nil {
				continue
			}
			next, err := step(ctx, state)
			if err != nil {
				return nil, err
			}
			if next != nil {
				state = next
			}
		}
		return state, nil
	}
}
