package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asynkron/applypatch/pkg/patch"
)

// ErrFuzzLimit is returned when a patch resolved only with more fuzz than
// RunnerOptions.MaxFuzz allows.
var ErrFuzzLimit = errors.New("patch fuzz exceeds limit")

// Runner drives the read, parse, materialize and apply pipeline against a workspace
// and reports on it through the configured logger and metrics.
type Runner struct {
	options   RunnerOptions
	logger    Logger
	metrics   Metrics
	workspace patch.Workspace
}

// Report describes one patch run.
type Report struct {
	Commit *patch.Commit
	Result *patch.Result
	// Applied is false for dry runs and for Check.
	Applied bool
	// FuzzWarning is set when the fuzz crossed RunnerOptions.FuzzWarnThreshold.
	FuzzWarning bool
}

// NewRunner builds a Runner over the filesystem rooted at options.WorkingDir.
func NewRunner(options RunnerOptions) (*Runner, error) {
	options.setDefaults()
	if err := options.validate(); err != nil {
		return nil, err
	}
	ws, err := patch.NewFilesystemWorkspace(options.WorkingDir)
	if err != nil {
		return nil, err
	}
	options.WorkingDir = ws.WorkingDir()
	return newRunner(options, ws), nil
}

// NewRunnerWithWorkspace builds a Runner over an arbitrary workspace, typically a
// patch.MemoryWorkspace.
func NewRunnerWithWorkspace(options RunnerOptions, ws patch.Workspace) (*Runner, error) {
	if ws == nil {
		return nil, errors.New("workspace is required")
	}
	options.setDefaults()
	if err := options.validate(); err != nil {
		return nil, err
	}
	return newRunner(options, ws), nil
}

func newRunner(options RunnerOptions, ws patch.Workspace) *Runner {
	return &Runner{
		options:   options,
		logger:    options.Logger.WithFields(Field("component", "runner")),
		metrics:   options.Metrics,
		workspace: ws,
	}
}

// Workspace returns the storage the runner reads from and writes to.
func (r *Runner) Workspace() patch.Workspace {
	return r.workspace
}

// Check resolves text against the workspace without writing anything.
func (r *Runner) Check(ctx context.Context, text string) (*Report, error) {
	ctx = ensureTraceID(ctx)
	start := time.Now()
	report, err := r.prepare(ctx, text)
	if err != nil {
		r.metrics.RecordPatch(time.Since(start), false, 0)
		return nil, err
	}
	r.metrics.RecordPatch(time.Since(start), true, report.Result.Fuzz)
	return report, nil
}

// Run resolves text and applies it unless the runner is in dry-run mode.
func (r *Runner) Run(ctx context.Context, text string) (*Report, error) {
	ctx = ensureTraceID(ctx)
	start := time.Now()
	report, err := r.prepare(ctx, text)
	if err == nil && !r.options.DryRun {
		err = r.apply(ctx, report)
	}
	if err != nil {
		r.metrics.RecordPatch(time.Since(start), false, 0)
		return nil, err
	}
	r.metrics.RecordPatch(time.Since(start), true, report.Result.Fuzz)
	return report, nil
}

// ApplyReport writes a report previously produced by Check, e.g. after the user
// reviewed it. Dry-run runners leave the workspace untouched.
func (r *Runner) ApplyReport(ctx context.Context, report *Report) error {
	if report == nil || report.Commit == nil {
		return errors.New("nothing to apply")
	}
	if report.Applied || r.options.DryRun {
		return nil
	}
	return r.apply(ensureTraceID(ctx), report)
}

func (r *Runner) prepare(ctx context.Context, text string) (*Report, error) {
	r.logger.Debug(ctx, "Loading referenced files", Field("paths", len(patch.FilesReferenced(text))))
	commit, p, err := patch.Prepare(ctx, text, r.workspace)
	if err != nil {
		r.logger.Error(ctx, "Patch could not be resolved", err)
		return nil, err
	}

	report := &Report{Commit: commit, Result: patch.Summarize(commit, p.Fuzz)}
	fields := []LogField{Field("files", len(commit.Changes)), Field("fuzz", p.Fuzz)}
	if r.options.FuzzWarnThreshold >= 0 && p.Fuzz > r.options.FuzzWarnThreshold {
		report.FuzzWarning = true
		r.logger.Warn(ctx, "Patch context matched only approximately", fields...)
	} else {
		r.logger.Debug(ctx, "Patch resolved", fields...)
	}

	if r.options.MaxFuzz > 0 && p.Fuzz > r.options.MaxFuzz {
		err := fmt.Errorf("%w: %d > %d", ErrFuzzLimit, p.Fuzz, r.options.MaxFuzz)
		r.logger.Error(ctx, "Patch rejected", err, fields...)
		return nil, err
	}
	return report, nil
}

func (r *Runner) apply(ctx context.Context, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := patch.Apply(report.Commit, r.workspace.Write, r.workspace.Delete)
	if err != nil {
		r.logger.Error(ctx, "Applying commit failed", err)
		return err
	}
	for _, path := range report.Commit.Paths() {
		r.metrics.RecordChange(report.Commit.Changes[path].Kind)
	}
	report.Applied = true
	r.logger.Info(ctx, "Patch applied", Field("files", len(report.Commit.Changes)), Field("fuzz", report.Result.Fuzz))
	return nil
}

func ensureTraceID(ctx context.Context) context.Context {
	if getTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, generateTraceID())
}
