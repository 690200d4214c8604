package activity

import (
	"strings"
	"time"
)

const (
	// VerbMigrationApplied is emitted once per migration step that ran.
	VerbMigrationApplied = "state.migration.applied"
	// VerbMigrationSkipped is emitted when a guard skipped a step.
	VerbMigrationSkipped = "state.migration.skipped"
	// VerbStateMigrated is emitted once per pass that moved the version.
	VerbStateMigrated = "state.migrated"

	// ObjectTypeState is the object type for every migration event.
	ObjectTypeState = "state"
	// DefaultChannel is applied by the Emitter when events carry no channel.
	DefaultChannel = "migrations"
)

// StepContext identifies the migration step an event describes.
type StepContext struct {
	Version int
	Name    string
	Added   []string
	Changed []string
	Removed []string
}

// MigrationEventInput describes the common fields for migration events.
type MigrationEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	RunID          string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	From           int
	To             int
	Step           StepContext
	OccurredAt     time.Time
}

// BuildMigrationAppliedEvent constructs an event for a step that ran.
func BuildMigrationAppliedEvent(input MigrationEventInput) Event {
	return buildMigrationEvent(VerbMigrationApplied, input, true)
}

// BuildMigrationSkippedEvent constructs an event for a step whose guard failed.
func BuildMigrationSkippedEvent(input MigrationEventInput) Event {
	return buildMigrationEvent(VerbMigrationSkipped, input, true)
}

// BuildStateMigratedEvent constructs the summary event for a whole pass.
func BuildStateMigratedEvent(input MigrationEventInput) Event {
	return buildMigrationEvent(VerbStateMigrated, input, false)
}

func buildMigrationEvent(verb string, input MigrationEventInput, withStep bool) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["from_version"] = input.From
	metadata["to_version"] = input.To
	if withStep {
		metadata["version"] = input.Step.Version
		if input.Step.Name != "" {
			metadata["name"] = input.Step.Name
		}
		if len(input.Step.Added) > 0 {
			metadata["added"] = append([]string{}, input.Step.Added...)
		}
		if len(input.Step.Changed) > 0 {
			metadata["changed"] = append([]string{}, input.Step.Changed...)
		}
		if len(input.Step.Removed) > 0 {
			metadata["removed"] = append([]string{}, input.Step.Removed...)
		}
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.RunID)
	if objectID == "" {
		objectID = ObjectTypeState
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     ObjectTypeState,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
