package activity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Event is one migration activity record. Identifiers are plain strings and
// each hook decides how to parse them.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans events out to several hooks.
type Hooks []ActivityHook

// Enabled reports whether there is at least one hook.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event once and delivers it to every hook, in order.
// Events without a verb, object type or object id are dropped. A failing hook
// does not stop delivery to the rest; failures come back joined as
// *HookError values.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if !deliverable(normalized) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, &HookError{Index: i, Verb: normalized.Verb, Err: err})
		}
	}
	return errors.Join(errs...)
}

// HookError identifies the hook that rejected an event.
type HookError struct {
	Index int
	Verb  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("activity: hook %d rejected %s: %v", e.Index, e.Verb, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Only forwards to hook the events whose verb is one of verbs.
func Only(hook ActivityHook, verbs ...string) ActivityHook {
	allowed := make([]string, 0, len(verbs))
	for _, verb := range verbs {
		allowed = append(allowed, strings.TrimSpace(verb))
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if hook == nil || !slices.Contains(allowed, strings.TrimSpace(event.Verb)) {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// NormalizeEvent returns a copy of event with trimmed identifiers, its own
// metadata map, recipients without blanks or duplicates and a UTC timestamp.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.UserID = strings.TrimSpace(event.UserID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.ObjectType = strings.TrimSpace(event.ObjectType)
	normalized.ObjectID = strings.TrimSpace(event.ObjectID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.DefinitionCode = strings.TrimSpace(event.DefinitionCode)
	normalized.Metadata = cloneMap(event.Metadata)
	normalized.Recipients = normalizeRecipients(event.Recipients)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	normalized.OccurredAt = normalized.OccurredAt.UTC()
	return normalized
}

func deliverable(event Event) bool {
	return event.Verb != "" && event.ObjectType != "" && event.ObjectID != ""
}

func normalizeRecipients(recipients []string) []string {
	var out []string
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" || slices.Contains(out, recipient) {
			continue
		}
		out = append(out, recipient)
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
