package deadline

import (
	"context"
	"fmt"
	"time"

	"UniPath/internal/catalog"
	"UniPath/internal/config"
	"UniPath/internal/metrics"
	"UniPath/internal/notification"
	"UniPath/internal/profile"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ProfileSource interface {
	ForEachWithSavedPrograms(ctx context.Context, fn func(*profile.Profile) error) error
}

type UniversityFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]catalog.University, error)
}

// DeadlineWriter appends entries whose dedup keys are not yet present.
type DeadlineWriter interface {
	AppendUnique(ctx context.Context, userID primitive.ObjectID, entries []notification.Notification) (int, error)
}

// SweepResult summarises one sweep run.
type SweepResult struct {
	RunID           string        `json:"runId"`
	UsersScanned    int           `json:"usersScanned"`
	UsersSkipped    int           `json:"usersSkipped"`
	ProgramsScanned int           `json:"programsScanned"`
	Created         int           `json:"created"`
	FailedUsers     int           `json:"failedUsers"`
	Duration        time.Duration `json:"duration"`
}

// Sweeper scans every profile with saved programs and appends deadline
// alerts and overdue notices. Reruns on the same day create nothing new.
type Sweeper struct {
	profiles       ProfileSource
	universities   UniversityFinder
	writer         DeadlineWriter
	defaultOffsets []int
	retries        uint64
	newBackOff     func() backoff.BackOff
	now            func() time.Time
	logger         *zap.Logger
}

func NewSweeper(p *profile.ProfileRepository, u *catalog.UniversityRepository, w *notification.DeadlineRepository, cfg *config.Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		profiles:       p,
		universities:   u,
		writer:         w,
		defaultOffsets: cfg.Notifications.DefaultOffsets,
		retries:        cfg.Notifications.SweepRetries,
		newBackOff:     defaultBackOff,
		now:            time.Now,
		logger:         logger.Named("sweep"),
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}

func alertKey(uni, prog primitive.ObjectID, daysLeft int) string {
	return fmt.Sprintf("%s:%s:%s:%d", notification.TypeDeadlineAlert, uni.Hex(), prog.Hex(), daysLeft)
}

func overdueKey(uni, prog primitive.ObjectID) string {
	return fmt.Sprintf("%s:%s:%s", notification.TypeDeadlineOverdue, uni.Hex(), prog.Hex())
}

// Run performs one sweep. Per-user failures are logged and counted; only a
// failure to iterate profiles aborts the run.
func (s *Sweeper) Run(ctx context.Context) (*SweepResult, error) {
	start := s.now()
	res := &SweepResult{RunID: uuid.NewString()}
	log := s.logger.With(zap.String("run_id", res.RunID))
	log.Info("deadline sweep started")

	err := s.profiles.ForEachWithSavedPrograms(ctx, func(p *profile.Profile) error {
		res.UsersScanned++
		if !p.AlertPreferences.OnsiteAlerts {
			res.UsersSkipped++
			return nil
		}

		var created, scanned int
		op := func() error {
			var err error
			created, scanned, err = s.sweepUser(ctx, p, start, log)
			return err
		}
		bo := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.retries), ctx)
		notify := func(err error, wait time.Duration) {
			log.Warn("retrying user", zap.String("user_id", p.UserID.Hex()), zap.Error(err), zap.Duration("wait", wait))
		}
		if err := backoff.RetryNotify(op, bo, notify); err != nil {
			res.FailedUsers++
			metrics.SweepFailedUsers.Inc()
			log.Error("deadline sweep failed for user", zap.String("user_id", p.UserID.Hex()), zap.Error(err))
			return nil
		}
		res.ProgramsScanned += scanned
		res.Created += created
		return nil
	})

	res.Duration = s.now().Sub(start)
	metrics.SweepDuration.Observe(res.Duration.Seconds())
	metrics.SweepNotificationsCreated.Add(float64(res.Created))
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return res, errors.Wrap(err, "iterating profiles")
	}
	metrics.SweepRuns.WithLabelValues("ok").Inc()
	log.Info("deadline sweep finished",
		zap.Int("users", res.UsersScanned),
		zap.Int("skipped", res.UsersSkipped),
		zap.Int("programs", res.ProgramsScanned),
		zap.Int("created", res.Created),
		zap.Int("failed_users", res.FailedUsers),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// sweepUser computes and writes one user's pending entries in a single batch.
func (s *Sweeper) sweepUser(ctx context.Context, p *profile.Profile, now time.Time, log *zap.Logger) (int, int, error) {
	ids := make([]primitive.ObjectID, 0, len(p.SavedPrograms))
	for _, sp := range p.SavedPrograms {
		ids = append(ids, sp.UniversityID)
	}
	unis, err := s.universities.FindByIDs(ctx, ids)
	if err != nil {
		return 0, 0, err
	}
	byID := make(map[primitive.ObjectID]*catalog.University, len(unis))
	for i := range unis {
		byID[unis[i].ID] = &unis[i]
	}

	entries, scanned := s.pending(p, byID, now, log)
	if len(entries) == 0 {
		return 0, scanned, nil
	}
	created, err := s.writer.AppendUnique(ctx, p.UserID, entries)
	if err != nil {
		return 0, scanned, err
	}
	return created, scanned, nil
}

// offsets falls back to the configured defaults only when the profile never
// stored a list. A stored empty list means no countdown alerts.
func (s *Sweeper) offsets(p *profile.Profile) []int {
	if p.AlertPreferences.TriggerOffsets != nil {
		return p.AlertPreferences.TriggerOffsets
	}
	return s.defaultOffsets
}

func (s *Sweeper) pending(p *profile.Profile, unis map[primitive.ObjectID]*catalog.University, now time.Time, log *zap.Logger) ([]notification.Notification, int) {
	var (
		entries []notification.Notification
		scanned int
		seen    = make(map[string]bool)
		offsets = s.offsets(p)
	)
	for _, sp := range p.SavedPrograms {
		uni, ok := unis[sp.UniversityID]
		if !ok {
			log.Warn("saved university no longer exists",
				zap.String("user_id", p.UserID.Hex()), zap.String("university_id", sp.UniversityID.Hex()))
			continue
		}
		prog, ok := uni.Program(sp.ProgramID)
		if !ok {
			log.Warn("saved program no longer exists",
				zap.String("user_id", p.UserID.Hex()), zap.String("program_id", sp.ProgramID.Hex()))
			continue
		}
		scanned++
		if prog.Rolling || prog.Deadline == nil {
			continue
		}

		ev := Evaluate(now, *prog.Deadline, false, offsets)
		var (
			key string
			n   notification.Notification
		)
		switch {
		case ev.Due:
			key = alertKey(uni.ID, prog.ID, *ev.DaysLeft)
			n = alertNotification(uni, prog, *ev.DaysLeft)
		case ev.Overdue:
			key = overdueKey(uni.ID, prog.ID)
			n = overdueNotification(uni, prog, -*ev.DaysLeft)
		default:
			continue
		}
		if seen[key] || p.HasDedupKey(key) {
			continue
		}
		seen[key] = true

		uniID := uni.ID
		n.ID = primitive.NewObjectID()
		n.UserID = p.UserID
		n.Category = notification.CategoryDeadline
		n.UniversityID = &uniID
		n.SendEmail = p.AlertPreferences.EmailAlerts
		n.DedupKey = key
		n.CreatedAt = now
		entries = append(entries, n)
	}
	return entries, scanned
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func alertNotification(uni *catalog.University, prog *catalog.Program, daysLeft int) notification.Notification {
	priority := notification.PriorityMedium
	switch {
	case daysLeft <= 1:
		priority = notification.PriorityUrgent
	case daysLeft <= 7:
		priority = notification.PriorityHigh
	}
	d := daysLeft
	msg := fmt.Sprintf("The application deadline for %s at %s is in %s.", prog.Name, uni.Name, plural(daysLeft, "day"))
	if daysLeft == 0 {
		msg = fmt.Sprintf("The application deadline for %s at %s is today.", prog.Name, uni.Name)
	}
	return notification.Notification{
		Type:     notification.TypeDeadlineAlert,
		Title:    "Application deadline approaching",
		Message:  msg,
		Priority: priority,
		Deadline: &notification.DeadlinePayload{
			UniversityID: uni.ID,
			ProgramID:    prog.ID,
			Deadline:     *prog.Deadline,
			DaysLeft:     &d,
		},
	}
}

func overdueNotification(uni *catalog.University, prog *catalog.Program, daysOverdue int) notification.Notification {
	d := daysOverdue
	return notification.Notification{
		Type:     notification.TypeDeadlineOverdue,
		Title:    "Application deadline passed",
		Message:  fmt.Sprintf("The application deadline for %s at %s passed %s ago.", prog.Name, uni.Name, plural(daysOverdue, "day")),
		Priority: notification.PriorityHigh,
		Deadline: &notification.DeadlinePayload{
			UniversityID: uni.ID,
			ProgramID:    prog.ID,
			Deadline:     *prog.Deadline,
			DaysOverdue:  &d,
		},
	}
}
