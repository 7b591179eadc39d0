package deadline

import (
	"context"

	"UniPath/internal/config"
	"UniPath/internal/scheduler"
)

const (
	SweepTask   = "deadline-sweep"
	CleanupTask = "notification-cleanup"
)

// RegisterJobs schedules the daily sweep and the weekly cleanup.
func RegisterJobs(s *scheduler.Scheduler, sw *Sweeper, cl *Cleaner, cfg *config.Config) error {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	err := s.Register(scheduler.Task{
		Name: SweepTask,
		Spec: cfg.Scheduler.SweepSpec,
		Run: func(ctx context.Context) error {
			_, err := sw.Run(ctx)
			return err
		},
	})
	if err != nil {
		return err
	}
	return s.Register(scheduler.Task{
		Name: CleanupTask,
		Spec: cfg.Scheduler.CleanupSpec,
		Run: func(ctx context.Context) error {
			_, err := cl.Run(ctx)
			return err
		},
	})
}
