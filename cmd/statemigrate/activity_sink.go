package main

import (
	"context"
	"log/slog"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// logSink records activity as log lines when no activity store is wired.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Log(ctx context.Context, record usertypes.ActivityRecord) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "activity",
		slog.String("verb", record.Verb),
		slog.String("object_type", record.ObjectType),
		slog.String("object_id", record.ObjectID),
		slog.String("actor_id", record.ActorID.String()),
		slog.String("channel", record.Channel),
		slog.Any("data", record.Data),
	)
	return nil
}
