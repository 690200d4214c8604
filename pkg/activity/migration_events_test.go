package activity

import (
	"testing"
	"time"
)

func TestBuildMigrationAppliedEventIncludesStepMetadata(t *testing.T) {
	meta := map[string]any{"source": "startup"}
	added := []string{"main.networks.ethereum.42161.name"}
	input := MigrationEventInput{
		ActorID:        " actor ",
		RunID:          " run-1 ",
		Metadata:       meta,
		From:           13,
		To:             15,
		DefinitionCode: "state:migrate",
		Recipients:     []string{"ops@example.com"},
		Step: StepContext{
			Version: 14,
			Name:    "polygon provider and arbitrum",
			Added:   added,
			Changed: []string{"main.networks.ethereum.137.connection.primary.current"},
		},
	}

	event := BuildMigrationAppliedEvent(input)

	if event.Verb != VerbMigrationApplied {
		t.Fatalf("expected verb %s got %s", VerbMigrationApplied, event.Verb)
	}
	if event.ObjectType != "state" || event.ObjectID != "run-1" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	if event.Metadata["version"] != 14 || event.Metadata["name"] != "polygon provider and arbitrum" {
		t.Fatalf("expected step metadata, got %+v", event.Metadata)
	}
	if event.Metadata["from_version"] != 13 || event.Metadata["to_version"] != 15 {
		t.Fatalf("expected version bounds, got %+v", event.Metadata)
	}
	if event.Metadata["source"] != "startup" {
		t.Fatalf("expected caller metadata preserved, got %+v", event.Metadata)
	}
	got, ok := event.Metadata["added"].([]string)
	if !ok || len(got) != 1 {
		t.Fatalf("expected added paths, got %v", event.Metadata["added"])
	}
	got[0] = "changed"
	if added[0] != "main.networks.ethereum.42161.name" {
		t.Fatalf("expected input paths untouched")
	}
	if _, ok := event.Metadata["removed"]; ok {
		t.Fatalf("expected removed omitted when empty")
	}
	if len(meta) != 1 {
		t.Fatalf("expected input metadata untouched, got %+v", meta)
	}
}

func TestBuildStateMigratedEventOmitsStep(t *testing.T) {
	event := BuildStateMigratedEvent(MigrationEventInput{
		RunID:      "run-2",
		From:       0,
		To:         15,
		Step:       StepContext{Version: 15},
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if event.Verb != VerbStateMigrated {
		t.Fatalf("unexpected verb %s", event.Verb)
	}
	if _, ok := event.Metadata["version"]; ok {
		t.Fatalf("expected no step version on summary event: %+v", event.Metadata)
	}
	if event.Metadata["to_version"] != 15 {
		t.Fatalf("expected to_version 15, got %v", event.Metadata["to_version"])
	}
}

func TestBuildMigrationSkippedEventFallsBackObjectID(t *testing.T) {
	event := BuildMigrationSkippedEvent(MigrationEventInput{})
	if event.ObjectID != "state" {
		t.Fatalf("expected fallback object ID 'state', got %q", event.ObjectID)
	}
	if event.Verb != VerbMigrationSkipped {
		t.Fatalf("unexpected verb %s", event.Verb)
	}
}
