package migrate

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-state-migrate/tree"
)

// RunStage names the point of an upgrade pass a log event describes.
type RunStage string

const (
	StageStart    RunStage = "start"
	StageApplied  RunStage = "applied"
	StageSkipped  RunStage = "skipped"
	StageDone     RunStage = "done"
	StageFailed   RunStage = "failed"
	StageActivity RunStage = "activity"
)

// RunLogEvent describes one step of an upgrade pass for logging.
type RunLogEvent struct {
	Stage    RunStage
	RunID    string
	Version  int
	Name     string
	From     int
	To       int
	Pending  int
	Delta    tree.Delta
	Duration time.Duration
	Err      error
}

// RunLogger records runner events.
type RunLogger interface {
	LogRun(RunLogEvent)
}

// RunLoggerFunc adapts a function to RunLogger.
type RunLoggerFunc func(RunLogEvent)

// LogRun implements RunLogger.
func (f RunLoggerFunc) LogRun(event RunLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopRunLogger struct{}

func (noopRunLogger) LogRun(RunLogEvent) {}

// WithRunLogger attaches a logger to the Runner.
func WithRunLogger(logger RunLogger) Option {
	return func(cfg *runnerConfig) {
		if logger == nil {
			cfg.logger = noopRunLogger{}
			return
		}
		cfg.logger = logger
	}
}

// SlogLogger adapts a *slog.Logger to RunLogger. Pass boundaries log at
// info, individual steps at debug and failures at error.
func SlogLogger(logger *slog.Logger) RunLogger {
	if logger == nil {
		return noopRunLogger{}
	}
	return RunLoggerFunc(func(event RunLogEvent) {
		attrs := []slog.Attr{
			slog.String("run_id", event.RunID),
			slog.String("stage", string(event.Stage)),
		}
		level := slog.LevelDebug
		msg := "state migration"
		switch event.Stage {
		case StageStart:
			level = slog.LevelInfo
			msg = "state migration started"
			attrs = append(attrs, slog.Int("from", event.From), slog.Int("target", event.To), slog.Int("pending", event.Pending))
		case StageDone:
			level = slog.LevelInfo
			msg = "state migration finished"
			attrs = append(attrs, slog.Int("from", event.From), slog.Int("to", event.To), slog.Duration("duration", event.Duration))
		case StageApplied, StageSkipped:
			msg = "state migration step " + string(event.Stage)
			attrs = append(attrs,
				slog.Int("version", event.Version),
				slog.String("name", event.Name),
				slog.Int("added", len(event.Delta.Added)),
				slog.Int("changed", len(event.Delta.Changed)),
				slog.Int("removed", len(event.Delta.Removed)),
				slog.Duration("duration", event.Duration),
			)
		case StageActivity:
			level = slog.LevelWarn
			msg = "state migration activity hook failed"
		case StageFailed:
			level = slog.LevelError
			msg = "state migration failed"
			attrs = append(attrs, slog.Int("version", event.Version), slog.String("name", event.Name))
		}
		if event.Err != nil {
			attrs = append(attrs, slog.String("error", event.Err.Error()))
		}
		logger.LogAttrs(context.Background(), level, msg, attrs...)
	})
}
