package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-state-migrate/pkg/activity"
	"github.com/goliatone/go-state-migrate/tree"
	"github.com/google/uuid"
)

// Runner upgrades state trees through the migrations of a Table.
type Runner struct {
	table     *Table
	evaluator Evaluator
	logger    RunLogger
	emitter   *activity.Emitter
	actorID   string
	runID     func() string
}

// New constructs a Runner for table. A nil table behaves as an empty one.
func New(table *Table, opts ...Option) *Runner {
	cfg := applyOptions(opts)
	if table == nil {
		table = &Table{}
	}
	runner := &Runner{
		table:     table,
		evaluator: cfg.evaluator,
		logger:    cfg.logger,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: len(cfg.activityHooks) > 0,
			Channel: cfg.activityChannel,
		}),
		actorID: cfg.activityActor,
		runID:   cfg.runID,
	}
	if runner.evaluator == nil {
		runner.evaluator = defaultEvaluator(cfg)
	}
	if runner.logger == nil {
		runner.logger = noopRunLogger{}
	}
	if runner.runID == nil {
		runner.runID = uuid.NewString
	}
	return runner
}

// Table returns the migration table the runner applies.
func (r *Runner) Table() *Table {
	return r.table
}

// Latest returns the version every upgraded tree ends up at.
func (r *Runner) Latest() int {
	return r.table.Latest()
}

// Pending lists the migrations Apply would run for state.
func (r *Runner) Pending(state map[string]any) []Migration {
	return r.table.Pending(VersionOf(tree.NormalizeMap(state)))
}

// Apply upgrades a copy of state to the latest version. The input is never
// modified. Trees already at or past the latest version come back unchanged.
func (r *Runner) Apply(state map[string]any) (map[string]any, error) {
	out, _, err := r.ApplyWithReport(context.Background(), state)
	return out, err
}

// ApplyWithReport behaves like Apply and also describes what each step did.
// On failure the returned tree is nil and the report covers the steps that
// completed before the failing one.
func (r *Runner) ApplyWithReport(ctx context.Context, state map[string]any) (map[string]any, Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	working := tree.NormalizeMap(tree.Clone(state))
	from := VersionOf(working)
	target := max(from, r.table.Latest())
	pending := r.table.Pending(from)

	report := Report{RunID: r.runID(), From: from, To: from}
	started := time.Now()
	r.logger.LogRun(RunLogEvent{
		Stage:   StageStart,
		RunID:   report.RunID,
		From:    from,
		To:      target,
		Pending: len(pending),
	})

	for _, mig := range pending {
		record, next, err := r.applyOne(ctx, report.RunID, from, mig, working)
		if err != nil {
			r.logger.LogRun(RunLogEvent{
				Stage:   StageFailed,
				RunID:   report.RunID,
				Version: mig.Version,
				Name:    mig.Name,
				From:    from,
				To:      target,
				Err:     err,
			})
			return nil, report, err
		}
		working = next
		report.Steps = append(report.Steps, record)
		r.emitStep(ctx, report.RunID, from, target, record)
	}

	if target > from {
		setVersion(working, target)
	}
	report.To = target

	r.logger.LogRun(RunLogEvent{
		Stage:    StageDone,
		RunID:    report.RunID,
		From:     from,
		To:       target,
		Pending:  len(pending),
		Duration: time.Since(started),
	})
	if report.Changed() {
		r.emit(ctx, report.RunID, activity.BuildStateMigratedEvent(activity.MigrationEventInput{
			ActorID: r.actorID,
			RunID:   report.RunID,
			From:    from,
			To:      target,
			Metadata: map[string]any{
				"applied": report.Applied(),
			},
		}))
	}
	return working, report, nil
}

func (r *Runner) applyOne(ctx context.Context, runID string, from int, mig Migration, state map[string]any) (StepRecord, map[string]any, error) {
	record := StepRecord{Version: mig.Version, Name: mig.Name}
	if err := ctx.Err(); err != nil {
		return record, nil, &StepError{Version: mig.Version, Name: mig.Name, Err: err}
	}

	if mig.When != "" {
		ok, err := r.guard(runID, mig, from, state)
		if err != nil {
			return record, nil, &StepError{Version: mig.Version, Name: mig.Name, Err: err}
		}
		if !ok {
			record.Skipped = true
			r.logger.LogRun(RunLogEvent{
				Stage:   StageSkipped,
				RunID:   runID,
				Version: mig.Version,
				Name:    mig.Name,
				From:    from,
			})
			return record, state, nil
		}
	}

	before := tree.Clone(state)
	started := time.Now()
	next, err := runStep(StepContext{
		Context:   ctx,
		RunID:     runID,
		Version:   mig.Version,
		Name:      mig.Name,
		From:      from,
		Evaluator: r.evaluator,
	}, mig.Up, state)
	record.Duration = time.Since(started)
	if err != nil {
		return record, nil, &StepError{Version: mig.Version, Name: mig.Name, Err: err}
	}
	if next == nil {
		next = state
	}

	delta := tree.Diff(before, next)
	record.Added = delta.Added
	record.Changed = delta.Changed
	record.Removed = delta.Removed
	r.logger.LogRun(RunLogEvent{
		Stage:    StageApplied,
		RunID:    runID,
		Version:  mig.Version,
		Name:     mig.Name,
		From:     from,
		Delta:    delta,
		Duration: record.Duration,
	})
	return record, next, nil
}

func runStep(ctx StepContext, step StepFunc, state map[string]any) (out map[string]any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out = nil
			err = fmt.Errorf("migrate: step panicked: %v", recovered)
		}
	}()
	return step(ctx, state)
}

func (r *Runner) emitStep(ctx context.Context, runID string, from, target int, record StepRecord) {
	input := activity.MigrationEventInput{
		ActorID: r.actorID,
		RunID:   runID,
		From:    from,
		To:      target,
		Step: activity.StepContext{
			Version: record.Version,
			Name:    record.Name,
			Added:   record.Added,
			Changed: record.Changed,
			Removed: record.Removed,
		},
	}
	if record.Skipped {
		r.emit(ctx, runID, activity.BuildMigrationSkippedEvent(input))
		return
	}
	r.emit(ctx, runID, activity.BuildMigrationAppliedEvent(input))
}

func (r *Runner) emit(ctx context.Context, runID string, event activity.Event) {
	if !r.emitter.Enabled() {
		return
	}
	if err := r.emitter.Emit(ctx, event); err != nil {
		r.logger.LogRun(RunLogEvent{
			Stage: StageActivity,
			RunID: runID,
			Name:  event.Verb,
			Err:   err,
		})
	}
}
