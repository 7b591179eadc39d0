package deadline

import (
	"context"
	"time"

	"UniPath/internal/config"
	"UniPath/internal/metrics"
	"UniPath/internal/notification"

	"go.uber.org/zap"
)

type ReadPurger interface {
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type CleanupResult struct {
	Cutoff          time.Time `json:"cutoff"`
	ProfilesTouched int64     `json:"profilesTouched"`
	StatusRemoved   int64     `json:"statusRemoved"`
}

// Cleaner removes read deadline entries older than a fixed age and any
// expired status notifications the TTL monitor has not yet deleted.
type Cleaner struct {
	deadlines ReadPurger
	statuses  ExpiredPurger
	age       time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewCleaner(d *notification.DeadlineRepository, s *notification.NotificationRepository, cfg *config.Config, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		deadlines: d,
		statuses:  s,
		age:       cfg.Notifications.CleanupAge,
		now:       time.Now,
		logger:    logger.Named("cleanup"),
	}
}

func (c *Cleaner) Run(ctx context.Context) (*CleanupResult, error) {
	res := &CleanupResult{Cutoff: c.now().Add(-c.age)}

	touched, err := c.deadlines.PurgeRead(ctx, res.Cutoff)
	if err != nil {
		return res, err
	}
	res.ProfilesTouched = touched
	metrics.CleanupRemoved.WithLabelValues(string(notification.CategoryDeadline)).Add(float64(touched))

	removed, err := c.statuses.PurgeExpired(ctx)
	if err != nil {
		return res, err
	}
	res.StatusRemoved = removed
	metrics.CleanupRemoved.WithLabelValues(string(notification.CategoryStatus)).Add(float64(removed))

	c.logger.Info("notification cleanup finished",
		zap.Time("cutoff", res.Cutoff),
		zap.Int64("profiles_touched", touched),
		zap.Int64("status_removed", removed),
	)
	return res, nil
}
