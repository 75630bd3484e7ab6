package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"castcut/internal/fileutil"
	"castcut/internal/history"
	"castcut/internal/logging"
	"castcut/internal/notifications"
	"castcut/internal/render"
	"castcut/internal/runlock"
	"castcut/internal/services"
	"castcut/internal/staging"
)

const (
	// RunsDir holds one scratch directory per run inside work_dir.
	RunsDir = "runs"
	// LocksDir holds per-output lock files inside work_dir.
	LocksDir = "locks"
	// StaleScratchAge is how long a scratch directory left by a failed run is kept.
	StaleScratchAge = 7 * 24 * time.Hour
)

type run struct {
	p       *Pipeline
	id      string
	kind    history.Kind
	output  string
	scratch string
	lock    *runlock.Lock
	logger  *slog.Logger
	record  bool
	started time.Time
}

// begin allocates a run: id, scratch directory, output lock and history row.
// An empty output skips the lock; kind "" skips history.
func (p *Pipeline) begin(ctx context.Context, kind history.Kind, output string, sources int) (context.Context, *run, error) {
	if err := p.cfg.EnsureDirectories(); err != nil {
		return ctx, nil, services.Wrap(services.ErrConfiguration, "run", "prepare directories", "cannot create work directories", err)
	}
	id := uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	r := &run{
		p:       p,
		id:      id,
		kind:    kind,
		output:  output,
		scratch: filepath.Join(p.cfg.Paths.WorkDir, RunsDir, id),
		logger:  logging.WithContext(ctx, logging.NewComponentLogger(p.logger, "pipeline")),
		started: time.Now(),
	}

	staging.CleanStale(ctx, filepath.Join(p.cfg.Paths.WorkDir, RunsDir), StaleScratchAge, map[string]struct{}{id: {}}, r.logger)

	if output != "" {
		lock, err := runlock.Acquire(filepath.Join(p.cfg.Paths.WorkDir, LocksDir), output)
		if err != nil {
			return ctx, nil, err
		}
		r.lock = lock
	}
	if err := os.MkdirAll(r.scratch, 0o755); err != nil {
		_ = r.lock.Release()
		return ctx, nil, fmt.Errorf("create scratch directory: %w", err)
	}
	if kind != "" && p.history != nil {
		if _, err := p.history.Start(ctx, id, kind, output, sources); err != nil {
			r.logger.Warn("run history unavailable",
				logging.Error(err),
				logging.String(logging.FieldEventType, "history_write_failed"),
				logging.String(logging.FieldImpact, "run will not appear in castcut runs"),
				logging.String(logging.FieldErrorHint, "check work_dir permissions or delete history.db"),
			)
		} else {
			r.record = true
		}
	}
	r.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("kind", string(kind)),
		logging.String("output", output),
		logging.Int("sources", sources),
	)
	return ctx, r, nil
}

// stage runs fn with the stage name stamped on ctx and logs its outcome.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	sctx := services.WithStage(ctx, name)
	logger := logging.WithContext(sctx, r.logger)
	if r.record {
		if err := r.p.history.SetStage(sctx, r.id, name); err != nil {
			logger.Debug("history stage update failed", logging.Error(err))
		}
	}
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()
	if err := fn(sctx); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
		)
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// finish records the outcome, releases the lock and removes the scratch
// directory of a successful run. A failed run keeps its scratch directory
// for inspection until CleanStale reclaims it.
func (r *run) finish(ctx context.Context, runErr error, outcome history.Outcome) {
	hctx := context.WithoutCancel(ctx)
	if r.record {
		var err error
		if runErr != nil {
			err = r.p.history.Fail(hctx, r.id, runErr)
		} else {
			err = r.p.history.Complete(hctx, r.id, outcome)
		}
		if err != nil {
			r.logger.Debug("history update failed", logging.Error(err))
		}
	}
	if err := r.lock.Release(); err != nil {
		r.logger.Debug("lock release failed", logging.Error(err))
	}
	r.notify(hctx, runErr, outcome)

	if runErr != nil {
		if ctx.Err() == nil {
			logging.ErrorWithContext(r.logger, "run failed", "run_failure",
				logging.String("failure_kind", services.FailureKind(runErr)),
				logging.String("scratch", r.scratch),
				logging.Error(runErr),
				logging.String(logging.FieldErrorHint, "inspect the scratch directory and the log above"),
			)
		}
		return
	}
	if err := os.RemoveAll(r.scratch); err != nil {
		r.logger.Debug("scratch cleanup failed", logging.Error(err))
	}
	r.logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", r.output),
		logging.Duration("elapsed", time.Since(r.started)),
	)
}

func (r *run) notify(ctx context.Context, runErr error, outcome history.Outcome) {
	if r.kind == "" || r.p.notifier == nil || errors.Is(runErr, context.Canceled) {
		return
	}
	summary := notifications.Run{
		ID:      r.id,
		Kind:    string(r.kind),
		Output:  r.output,
		Cuts:    outcome.Cuts,
		Program: outcome.Program,
		Elapsed: time.Since(r.started),
	}
	var err error
	if runErr != nil {
		err = r.p.notifier.RunFailed(ctx, summary, services.FailureKind(runErr), runErr)
	} else {
		err = r.p.notifier.RunCompleted(ctx, summary)
	}
	if err != nil {
		logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the run outcome was not pushed"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (r *run) stitcher(p *Pipeline, width, height int) *render.Stitcher {
	return &render.Stitcher{
		Media:      p.media,
		Encoder:    Encoder(p.cfg, width, height),
		Workers:    p.cfg.Render.Workers,
		ScratchDir: filepath.Join(r.scratch, "render"),
		Progress:   p.progress,
		Logger:     p.logger,
	}
}

// OutputPath resolves where a run writes its result. An explicit path wins;
// otherwise the sanitized stem of source plus suffix lands in output_dir.
func (p *Pipeline) OutputPath(explicit, source, suffix string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", fmt.Errorf("resolve output: %w", err)
		}
		return abs, nil
	}
	name := fileutil.SanitizeName(fileutil.Stem(source)) + suffix + ".mp4"
	return filepath.Join(p.cfg.Paths.OutputDir, name), nil
}
