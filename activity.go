package migrate

import "github.com/goliatone/go-state-migrate/pkg/activity"

// WithActivityHooks attaches hooks notified about every applied or skipped
// step and once per pass that moved the version. Hooks are cloned and nil
// entries dropped. Hook failures are logged and never fail a pass.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *runnerConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *runnerConfig) {
		cfg.activityChannel = channel
	}
}

// WithActivityActor records actorID on emitted events.
func WithActivityActor(actorID string) Option {
	return func(cfg *runnerConfig) {
		cfg.activityActor = actorID
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
