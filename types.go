package migrate

import (
	"context"
	"time"

	"github.com/goliatone/go-state-migrate/pkg/activity"
)

// StepFunc upgrades state by one schema version. The runner owns state for
// the duration of the call, so a step may modify it in place and return it.
// Steps must treat missing or mistyped nodes as absent instead of failing.
type StepFunc func(ctx StepContext, state map[string]any) (map[string]any, error)

// StepContext carries the runner's view of the step being applied.
type StepContext struct {
	Context   context.Context
	RunID     string
	Version   int
	Name      string
	From      int
	Evaluator Evaluator
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	// Snapshot top-level keys are bound as variables when it is a mapping.
	Snapshot any
	// Vars are bound as variables and shadow snapshot keys.
	Vars map[string]any
	// Metadata describes the caller, e.g. the run and step being applied.
	Metadata map[string]any
	Now      *time.Time
	Label    string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Vars == nil {
		ctx.Vars = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) label() string {
	if ctx.Label != "" {
		return ctx.Label
	}
	return "unknown"
}

// bindings returns the variables visible to an expression: the snapshot's
// top-level keys overlaid with Vars.
func (ctx RuleContext) bindings() map[string]any {
	out := map[string]any{}
	if snapshot, ok := ctx.Snapshot.(map[string]any); ok {
		for key, value := range snapshot {
			out[key] = value
		}
	}
	for key, value := range ctx.Vars {
		out[key] = value
	}
	return out
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// Option configures a Runner.
type Option func(*runnerConfig)

type runnerConfig struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          RunLogger
	activityHooks   activity.Hooks
	activityChannel string
	activityActor   string
	runID           func() string
}

func applyOptions(opts []Option) runnerConfig {
	cfg := runnerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator configures the evaluator used for guards and rewrite rules.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *runnerConfig) {
		cfg.evaluator = e
	}
}

// WithRunIDGenerator overrides how run identifiers are produced.
func WithRunIDGenerator(fn func() string) Option {
	return func(cfg *runnerConfig) {
		cfg.runID = fn
	}
}
