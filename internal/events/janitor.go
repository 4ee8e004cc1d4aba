package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor deletes published outbox rows older than the retention on a cron
// schedule.
type Janitor struct {
	outbox    Outbox
	logger    *slog.Logger
	schedule  string
	retention time.Duration
	now       func() time.Time
}

func NewJanitor(outbox Outbox, logger *slog.Logger, schedule string, retention time.Duration) *Janitor {
	if schedule == "" {
		schedule = "@hourly"
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		outbox:    outbox,
		logger:    logger.With("component", "outbox_janitor"),
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
	}
}

// Run blocks until ctx is done. It fails fast on an unparsable schedule.
func (j *Janitor) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(j.schedule, func() { j.Prune(ctx) }); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (j *Janitor) Prune(ctx context.Context) {
	cutoff := j.now().UTC().Add(-j.retention)
	n, err := j.outbox.PrunePublished(ctx, cutoff)
	if err != nil {
		j.logger.Error("outbox prune failed", "err", err)
		return
	}
	if n > 0 {
		j.logger.Info("outbox pruned", "deleted", n, "cutoff", cutoff)
	}
}
