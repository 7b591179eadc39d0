package deadline

import (
	"context"
	"testing"
	"time"

	"UniPath/internal/notification"
	"UniPath/internal/profile"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

type stubPurger struct {
	cutoff  time.Time
	touched int64
	err     error
}

func (s *stubPurger) PurgeRead(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.touched, s.err
}

type stubExpired struct {
	removed int64
	called  bool
}

func (s *stubExpired) PurgeExpired(context.Context) (int64, error) {
	s.called = true
	return s.removed, nil
}

func TestCleanerRun(t *testing.T) {
	d := &stubPurger{touched: 4}
	st := &stubExpired{removed: 2}
	c := &Cleaner{
		deadlines: d,
		statuses:  st,
		age:       30 * day,
		now:       func() time.Time { return now },
		logger:    zaptest.NewLogger(t),
	}

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*day), d.cutoff)
	assert.Equal(t, int64(4), res.ProfilesTouched)
	assert.Equal(t, int64(2), res.StatusRemoved)
	assert.True(t, st.called)
}

func TestCleanerStopsOnError(t *testing.T) {
	st := &stubExpired{}
	c := &Cleaner{
		deadlines: &stubPurger{err: errors.New("boom")},
		statuses:  st,
		age:       30 * day,
		now:       func() time.Time { return now },
		logger:    zaptest.NewLogger(t),
	}
	_, err := c.Run(context.Background())
	assert.Error(t, err)
	assert.False(t, st.called)
}

func TestCleanerPurgesOnlyOldReadEntries(t *testing.T) {
	readAt := now.Add(-31 * day)
	p := &profile.Profile{
		UserID: primitive.NewObjectID(),
		DeadlineNotifications: []notification.Notification{
			{ID: primitive.NewObjectID(), DedupKey: "old-read", Read: true, ReadAt: &readAt, CreatedAt: now.Add(-31 * day)},
			{ID: primitive.NewObjectID(), DedupKey: "old-unread", CreatedAt: now.Add(-40 * day)},
			{ID: primitive.NewObjectID(), DedupKey: "recent-read", Read: true, ReadAt: &readAt, CreatedAt: now.Add(-29 * day)},
		},
	}
	profiles := &memProfiles{items: []*profile.Profile{p}}
	c := &Cleaner{
		deadlines: profiles,
		statuses:  &stubExpired{},
		age:       30 * day,
		now:       func() time.Time { return now },
		logger:    zaptest.NewLogger(t),
	}

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ProfilesTouched)

	var left []string
	for _, n := range p.DeadlineNotifications {
		left = append(left, n.DedupKey)
	}
	assert.Equal(t, []string{"old-unread", "recent-read"}, left)
}

func TestOverdueNoticeNotRepeatedAfterCleanup(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(-2*day), false)
	uni := f.university(prog)
	p := f.user(defaults(), pair(uni, prog))

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	f.profiles.markRead(p.UserID, now)

	f.clock = now.Add(31 * day)
	c := &Cleaner{
		deadlines: f.profiles,
		statuses:  &stubExpired{},
		age:       30 * day,
		now:       func() time.Time { return f.clock },
		logger:    zaptest.NewLogger(t),
	}
	_, err = c.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, p.DeadlineNotifications)

	res, err = f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Empty(t, p.DeadlineNotifications)
	assert.Equal(t, []string{overdueKey(uni.ID, prog.ID)}, p.DeadlineDedupKeys)
}
