package pipeline

import (
	"context"
	"errors"
	"time"

	accrual "github.com/Allen15763/accrual-bot-sub000"
	"github.com/Allen15763/accrual-bot-sub000/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Hook is an external call site invoked around each top-level step. The
// result is nil for before-hooks. Checkpointing layers register hooks to
// persist the run context; hook errors are logged and never abort the run.
type Hook func(ctx context.Context, run *Context, res *Result) error

// Executor is the top-level driver: it runs an ordered list of (possibly
// composite) units against one Context and aggregates the result tree into
// a flat report. It holds no business logic and no retry policy beyond
// what each unit specifies.
type Executor struct {
	logger log.Logger
	tracer trace.Tracer
	before []Hook
	after  []Hook
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the run logger, propagated to steps through the
// context.
func WithExecutorLogger(logger log.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTracer enables a span per top-level step.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithBeforeHook registers a hook invoked before each top-level step.
func WithBeforeHook(hook Hook) ExecutorOption {
	return func(e *Executor) {
		e.before = append(e.before, hook)
	}
}

// WithAfterHook registers a hook invoked after each top-level step.
func WithAfterHook(hook Hook) ExecutorOption {
	return func(e *Executor) {
		e.after = append(e.after, hook)
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{logger: log.NewNop()}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Report is the flattened aggregate of one run.
type Report struct {
	RunID     string                   `json:"runId"`
	Success   bool                     `json:"success"`
	StartedAt time.Time                `json:"startedAt"`
	Duration  time.Duration            `json:"duration"`
	Succeeded []string                 `json:"succeeded"`
	Failed    []string                 `json:"failed"`
	Durations map[string]time.Duration `json:"durations"`
	Results   []*Result                `json:"results"`
}

// ErrNoUnits is returned when Execute is called without steps.
var ErrNoUnits = errors.New("pipeline: no units to execute")

// Execute runs the units in order against the run context. Dispatch stops
// after a required top-level failure; the report still covers everything
// that ran. The returned error is reserved for driver misuse — a failed
// run is reported through Report.Success and Report.Failed.
func (e *Executor) Execute(ctx context.Context, run *Context, units ...*Unit) (*Report, error) {
	if run == nil {
		return nil, errors.New("pipeline: nil run context")
	}

	if len(units) == 0 {
		return nil, ErrNoUnits
	}

	ctx = accrual.ContextWithLogger(ctx, e.logger)
	start := time.Now()

	e.logger.Log(ctx, log.LevelInfo, "run started",
		log.String("run_id", run.Meta.RunID.String()),
		log.String("entity", run.Meta.Entity),
		log.String("processing_type", run.Meta.ProcessingType),
		log.Int("processing_date", run.Meta.ProcessingDate),
		log.Int("steps", len(units)),
	)

	results := make([]*Result, 0, len(units))

	for _, unit := range units {
		res := e.runUnit(ctx, run, unit)
		results = append(results, res)

		if res.IsFailed() && unit.IsRequired() {
			e.logger.Log(ctx, log.LevelError, "run aborted on required step failure",
				log.String("failed_step", res.StepName),
			)

			break
		}
	}

	report := e.buildReport(run, start, results)

	e.logger.Log(ctx, log.LevelInfo, "run finished",
		log.String("run_id", report.RunID),
		log.Bool("success", report.Success),
		log.Duration("duration", report.Duration),
		log.Int("failed_steps", len(report.Failed)),
	)

	return report, nil
}

func (e *Executor) runUnit(ctx context.Context, run *Context, unit *Unit) *Result {
	stepCtx := ctx

	var span trace.Span

	if e.tracer != nil {
		stepCtx, span = e.tracer.Start(ctx, unit.Name(), trace.WithAttributes(
			attribute.String("pipeline.run_id", run.Meta.RunID.String()),
			attribute.String("pipeline.entity", run.Meta.Entity),
		))
		defer span.End()
	}

	e.invokeHooks(stepCtx, run, nil, e.before, "before")

	res := unit.Run(stepCtx, run)

	if span != nil {
		span.SetAttributes(attribute.String("pipeline.step_status", string(res.Status)))

		if res.IsFailed() {
			if res.Err != nil {
				span.RecordError(res.Err)
			}

			span.SetStatus(codes.Error, res.Message)
		}
	}

	e.invokeHooks(stepCtx, run, res, e.after, "after")

	return res
}

func (e *Executor) invokeHooks(ctx context.Context, run *Context, res *Result, hooks []Hook, phase string) {
	for _, hook := range hooks {
		if err := hook(ctx, run, res); err != nil {
			e.logger.Log(ctx, log.LevelWarn, "checkpoint hook failed",
				log.String("phase", phase),
				log.Err(err),
			)
		}
	}
}

func (e *Executor) buildReport(run *Context, start time.Time, results []*Result) *Report {
	report := &Report{
		RunID:     run.Meta.RunID.String(),
		StartedAt: start,
		Duration:  time.Since(start),
		Durations: make(map[string]time.Duration),
		Results:   results,
	}

	report.Success = true

	for _, res := range results {
		flatten(res, report)

		// Optional failures deep in the tree appear in Failed for
		// diagnosis without flipping the overall flag.
		if res.IsFailed() {
			report.Success = false
		}
	}

	return report
}

// flatten walks a result tree in execution order, collecting per-step
// durations and the ordered succeeded/failed name lists.
func flatten(res *Result, report *Report) {
	if res == nil {
		return
	}

	report.Durations[res.StepName] = res.Duration

	switch {
	case res.IsFailed():
		report.Failed = append(report.Failed, res.StepName)
	case res.IsSuccess():
		report.Succeeded = append(report.Succeeded, res.StepName)
	}

	for _, child := range res.Children {
		flatten(child, report)
	}
}
