// Package jobs runs the periodic refresh of every stored feed followed by
// retention cleanup.
package jobs

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"

	"github.com/odysseus0/sharedfeed/internal/config"
	"github.com/odysseus0/sharedfeed/internal/model"
)

type Refresher interface {
	Fetch(ctx context.Context, feedID *int64) (model.FetchReport, error)
}

type Pruner interface {
	PruneAllFeeds(ctx context.Context, olderThan time.Time, maxEntries int) (int64, error)
}

type Runner struct {
	refresher Refresher
	pruner    Pruner
	cfg       config.Config
	logger    *log.Logger
}

func NewRunner(refresher Refresher, pruner Pruner, cfg config.Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{refresher: refresher, pruner: pruner, cfg: cfg, logger: logger}
}

// RunOnce refreshes every feed and then prunes entries past retention.
// Feed-level fetch failures are logged, not returned.
func (r *Runner) RunOnce(ctx context.Context) error {
	report, err := r.refresher.Fetch(ctx, nil)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	failed := 0
	for _, res := range report.Results {
		if res.Error != "" {
			failed++
			r.logger.Warn("scheduled fetch failed", "feed", res.FeedID, "url", res.FeedURL, "err", res.Error)
		}
	}
	r.logger.Info("scheduled refresh done", "feeds", len(report.Results), "failed", failed)

	pruned, err := r.pruner.PruneAllFeeds(ctx, r.cfg.RetentionCutoff(time.Now()), r.cfg.MaxEntriesPerFeed)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	if pruned > 0 {
		r.logger.Info("retention cleanup", "pruned", pruned)
	}
	return nil
}

// Schedule registers RunOnce every interval, starting immediately. Runs never
// overlap; a tick that arrives while a run is in progress is skipped. The
// returned scheduler is not started.
func Schedule(ctx context.Context, r *Runner, interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be > 0, got %s", interval)
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("scheduled run failed", "err", err)
			}
		}),
		gocron.WithName("refresh-and-prune"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	r.logger.Info("jobs scheduled", "every", interval)
	return s, nil
}
