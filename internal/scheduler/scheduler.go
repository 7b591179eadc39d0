package scheduler

import (
	"context"
	"time"

	"UniPath/internal/config"
	"UniPath/internal/metrics"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Task is a named unit of recurring work.
type Task struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs registered tasks on cron schedules in a fixed timezone.
// A task whose previous run is still in progress is skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
	tasks   map[string]cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(cfg *config.Config, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "loading timezone %q", cfg.Scheduler.Timezone)
	}
	cl := cronLogger{logger.Named("cron").Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: cfg.Scheduler.JobTimeout,
		tasks:   make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Register adds t to the schedule. Names must be unique.
func (s *Scheduler) Register(t Task) error {
	if _, ok := s.tasks[t.Name]; ok {
		return errors.Errorf("task %q already registered", t.Name)
	}
	id, err := s.cron.AddFunc(t.Spec, func() { s.runTask(t) })
	if err != nil {
		return errors.Wrapf(err, "scheduling task %q with spec %q", t.Name, t.Spec)
	}
	s.tasks[t.Name] = id
	s.logger.Info("task scheduled", zap.String("task", t.Name), zap.String("spec", t.Spec))
	return nil
}

// Next reports when the named task fires next.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	id, ok := s.tasks[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) runTask(t Task) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	log := s.logger.With(zap.String("task", t.Name))
	log.Info("task started")
	if err := t.Run(ctx); err != nil {
		metrics.ScheduledJobRuns.WithLabelValues(t.Name, "error").Inc()
		log.Error("task failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}
	metrics.ScheduledJobRuns.WithLabelValues(t.Name, "ok").Inc()
	log.Info("task finished", zap.Duration("elapsed", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels in-flight tasks and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartScheduler ties the scheduler to the application lifecycle.
func (s *Scheduler) StartScheduler(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.logger.Info("starting scheduler", zap.Int("tasks", len(s.tasks)))
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("stopping scheduler")
			return s.Stop(ctx)
		},
	})
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
