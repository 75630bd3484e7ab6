package loudness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"castcut/internal/logging"
	"castcut/internal/services"
	"castcut/internal/timeline"
)

// Set is the outcome of profiling every source of a run.
type Set struct {
	Profiles []Profile
	// Failed maps source index to the reason it was excluded from selection.
	Failed map[int]error
}

// Levels returns the profiles as a timeline.Levels table. Failed sources have
// empty rows and are never selectable.
func (s Set) Levels() timeline.Levels {
	return Levels(s.Profiles)
}

// Err joins the per-source failures in source order, or returns nil.
func (s Set) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.Failed))
	for i := range s.Profiles {
		if err, ok := s.Failed[i]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Profiler measures every source and builds its profile.
type Profiler struct {
	Measurer Measurer
	Window   time.Duration
	Lead     time.Duration
	Metric   Metric
	Logger   *slog.Logger
}

// ProfileAll measures all sources concurrently and waits for every one of
// them. Failures of non-reference sources are collected in Set.Failed. A
// reference failure is returned as an error that carries every source's
// failure, and a cancelled context is returned as is.
func (p *Profiler) ProfileAll(ctx context.Context, sources []timeline.Source) (Set, error) {
	logger := logging.NewComponentLogger(p.Logger, "loudness")
	if len(sources) == 0 {
		return Set{}, errors.New("profile: no sources")
	}
	if p.Window <= 0 {
		return Set{}, fmt.Errorf("profile: non-positive window %s", p.Window)
	}

	profiles := make([]Profile, len(sources))
	failures := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			sctx := services.WithSource(ctx, src.Index)
			started := time.Now()
			samples, err := p.Measurer.Measure(sctx, src)
			if err != nil {
				failures[i] = err
				profiles[i] = Profile{Source: src.Index, Window: p.Window}
				return nil
			}
			profiles[i] = BuildProfile(src.Index, samples, src.Offset, p.Lead, p.Window, p.Metric)
			logging.WithContext(sctx, logger).Info("source profiled",
				logging.String("path", filepath.Base(src.Path)),
				logging.Int("windows", len(profiles[i].Values)),
				logging.Duration("elapsed", time.Since(started)),
			)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Set{}, err
	}

	if failures[timeline.ReferenceIndex] != nil {
		// errors.Join skips nils and keeps source order.
		return Set{}, fmt.Errorf("profile reference: %w", errors.Join(failures...))
	}

	set := Set{Profiles: profiles}
	for i, err := range failures {
		if err == nil {
			continue
		}
		if set.Failed == nil {
			set.Failed = make(map[int]error)
		}
		set.Failed[i] = err
		logging.WarnWithContext(logging.WithContext(services.WithSource(ctx, i), logger),
			"source excluded from selection", "profile_failed",
			logging.String("path", filepath.Base(sources[i].Path)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "camera is never shown and its audio is left out of the mix"),
			logging.String(logging.FieldErrorHint, "check that the file has a decodable audio track"),
		)
	}
	return set, nil
}
