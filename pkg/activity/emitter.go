package activity

import (
	"context"
	"strings"
	"time"
)

// Config holds the defaults an Emitter stamps on events.
type Config struct {
	Enabled bool
	// Channel is applied to events without one. Defaults to DefaultChannel.
	Channel string
	// Now stamps events without an OccurredAt. Defaults to time.Now.
	Now func() time.Time
}

// Emitter sends migration events to hooks after applying Config defaults.
type Emitter struct {
	hooks   Hooks
	channel string
	now     func() time.Time
}

// NewEmitter returns an emitter over the non-nil entries of hooks. It is
// disabled when cfg.Enabled is false or no hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	var live Hooks
	for _, hook := range hooks {
		if hook != nil {
			live = append(live, hook)
		}
	}
	if !cfg.Enabled {
		live = nil
	}

	emitter := &Emitter{
		hooks:   live,
		channel: strings.TrimSpace(cfg.Channel),
		now:     cfg.Now,
	}
	if emitter.channel == "" {
		emitter.channel = DefaultChannel
	}
	if emitter.now == nil {
		emitter.now = time.Now
	}
	return emitter
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.hooks.Enabled()
}

// Emit delivers event to the hooks. It is a no-op on a disabled emitter.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	return e.hooks.Notify(ctx, event)
}
