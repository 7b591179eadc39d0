package deadline

import (
	"context"
	"testing"
	"time"

	"UniPath/internal/catalog"
	"UniPath/internal/notification"
	"UniPath/internal/profile"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

type sweepFixture struct {
	profiles *memProfiles
	unis     *memUniversities
	writer   *memWriter
	sweeper  *Sweeper
	clock    time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	f := &sweepFixture{
		profiles: &memProfiles{},
		unis:     &memUniversities{byID: map[primitive.ObjectID]catalog.University{}},
		clock:    now,
	}
	f.writer = newMemWriter(f.profiles)
	f.sweeper = &Sweeper{
		profiles:       f.profiles,
		universities:   f.unis,
		writer:         f.writer,
		defaultOffsets: []int{30, 14, 7, 1},
		retries:        2,
		newBackOff:     func() backoff.BackOff { return &backoff.ZeroBackOff{} },
		now:            func() time.Time { return f.clock },
		logger:         zaptest.NewLogger(t),
	}
	return f
}

func (f *sweepFixture) university(programs ...catalog.Program) catalog.University {
	u := catalog.University{ID: primitive.NewObjectID(), Name: "University of Tartu", Country: "Estonia", Programs: programs}
	f.unis.byID[u.ID] = u
	return u
}

func program(deadline *time.Time, rolling bool) catalog.Program {
	return catalog.Program{ID: primitive.NewObjectID(), Name: "MSc Software Engineering", DegreeLevel: "master", Deadline: deadline, Rolling: rolling}
}

func (f *sweepFixture) user(prefs profile.AlertPreferences, saved ...[2]primitive.ObjectID) *profile.Profile {
	p := &profile.Profile{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), AlertPreferences: prefs}
	for _, s := range saved {
		p.SavedPrograms = append(p.SavedPrograms, profile.SavedProgram{ID: primitive.NewObjectID(), UniversityID: s[0], ProgramID: s[1]})
	}
	f.profiles.items = append(f.profiles.items, p)
	return p
}

func pair(u catalog.University, p catalog.Program) [2]primitive.ObjectID {
	return [2]primitive.ObjectID{u.ID, p.ID}
}

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func defaults() profile.AlertPreferences {
	return profile.DefaultPreferences([]int{30, 14, 7, 1})
}

func TestSweepSevenDayAlert(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(7*day), false)
	uni := f.university(prog)
	prefs := defaults()
	prefs.EmailAlerts = false
	p := f.user(prefs, pair(uni, prog))

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.UsersScanned)
	assert.Equal(t, 1, res.ProgramsScanned)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, p.DeadlineNotifications, 1)
	n := p.DeadlineNotifications[0]
	assert.Equal(t, notification.TypeDeadlineAlert, n.Type)
	assert.Equal(t, notification.CategoryDeadline, n.Category)
	assert.Equal(t, notification.PriorityHigh, n.Priority)
	assert.False(t, n.SendEmail)
	assert.False(t, n.Read)
	require.NotNil(t, n.Deadline)
	require.NotNil(t, n.Deadline.DaysLeft)
	assert.Equal(t, 7, *n.Deadline.DaysLeft)
	assert.Nil(t, n.Deadline.DaysOverdue)
	assert.Equal(t, uni.ID, n.Deadline.UniversityID)
	assert.Equal(t, prog.ID, n.Deadline.ProgramID)
	assert.Contains(t, n.Message, "7 days")

	// same day rerun is a no-op
	res, err = f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Len(t, p.DeadlineNotifications, 1)
}

func TestSweepBetweenOffsetsCreatesNothing(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(10*day), false)
	uni := f.university(prog)
	p := f.user(defaults(), pair(uni, prog))

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Empty(t, p.DeadlineNotifications)
}

func TestSweepOverdueOnce(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(-3*day), false)
	uni := f.university(prog)
	p := f.user(defaults(), pair(uni, prog))

	_, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, p.DeadlineNotifications, 1)
	n := p.DeadlineNotifications[0]
	assert.Equal(t, notification.TypeDeadlineOverdue, n.Type)
	require.NotNil(t, n.Deadline.DaysOverdue)
	assert.Equal(t, 3, *n.Deadline.DaysOverdue)

	// the next day the overdue notice is not repeated
	f.clock = now.Add(day)
	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Len(t, p.DeadlineNotifications, 1)
}

func TestSweepSuccessiveOffsets(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(14*day), false)
	uni := f.university(prog)
	p := f.user(defaults(), pair(uni, prog))

	for d := 0; d <= 14; d++ {
		f.clock = now.Add(time.Duration(d) * day)
		_, err := f.sweeper.Run(context.Background())
		require.NoError(t, err)
	}

	var days []int
	for _, n := range p.DeadlineNotifications {
		days = append(days, *n.Deadline.DaysLeft)
	}
	assert.Equal(t, []int{14, 7, 1}, days)
}

func TestSweepRollingNeverNotifies(t *testing.T) {
	f := newSweepFixture(t)
	rolling := program(nil, true)
	noDeadline := program(nil, false)
	uni := f.university(rolling, noDeadline)
	p := f.user(defaults(), pair(uni, rolling), pair(uni, noDeadline))

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ProgramsScanned)
	assert.Zero(t, res.Created)
	assert.Empty(t, p.DeadlineNotifications)
}

func TestSweepSkipsOnsiteDisabled(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(7*day), false)
	uni := f.university(prog)
	prefs := defaults()
	prefs.OnsiteAlerts = false
	p := f.user(prefs, pair(uni, prog))

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.UsersSkipped)
	assert.Empty(t, p.DeadlineNotifications)
	assert.Zero(t, f.writer.calls[p.UserID])
}

func TestSweepSkipsMissingCatalogEntries(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(7*day), false)
	uni := f.university(prog)
	p := f.user(defaults(),
		[2]primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
		[2]primitive.ObjectID{uni.ID, primitive.NewObjectID()},
		pair(uni, prog),
	)

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProgramsScanned)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, p.DeadlineNotifications, 1)
}

func TestSweepUsesCustomOffsets(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(3*day), false)
	uni := f.university(prog)
	prefs := defaults()
	prefs.TriggerOffsets = []int{3}
	p := f.user(prefs, pair(uni, prog))

	_, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, p.DeadlineNotifications, 1)
	assert.Equal(t, 3, *p.DeadlineNotifications[0].Deadline.DaysLeft)
}

func TestSweepEmptyOffsetsOnlyOverdue(t *testing.T) {
	f := newSweepFixture(t)
	soon := program(at(7*day), false)
	passed := program(at(-1*day), false)
	uni := f.university(soon, passed)
	prefs := defaults()
	prefs.TriggerOffsets = []int{}
	p := f.user(prefs, pair(uni, soon), pair(uni, passed))

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, p.DeadlineNotifications, 1)
	assert.Equal(t, notification.TypeDeadlineOverdue, p.DeadlineNotifications[0].Type)
	assert.Equal(t, passed.ID, p.DeadlineNotifications[0].Deadline.ProgramID)
}

func TestSweepNilOffsetsUseDefaults(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(14*day), false)
	uni := f.university(prog)
	prefs := defaults()
	prefs.TriggerOffsets = nil
	p := f.user(prefs, pair(uni, prog))

	_, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, p.DeadlineNotifications, 1)
	assert.Equal(t, 14, *p.DeadlineNotifications[0].Deadline.DaysLeft)
}

func TestSweepIsolatesUserFailures(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(day), false)
	uni := f.university(prog)
	broken := f.user(defaults(), pair(uni, prog))
	healthy := f.user(defaults(), pair(uni, prog))
	f.writer.failures[broken.UserID] = 100

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailedUsers)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 3, f.writer.calls[broken.UserID], "one attempt plus two retries")
	assert.Empty(t, broken.DeadlineNotifications)
	require.Len(t, healthy.DeadlineNotifications, 1)
	assert.Equal(t, notification.PriorityUrgent, healthy.DeadlineNotifications[0].Priority)
}

func TestSweepRetriesTransientFailure(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(30*day), false)
	uni := f.university(prog)
	p := f.user(defaults(), pair(uni, prog))
	f.writer.failures[p.UserID] = 1

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.FailedUsers)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, f.writer.calls[p.UserID])
}

func TestSweepUniversityLookupFailure(t *testing.T) {
	f := newSweepFixture(t)
	prog := program(at(7*day), false)
	uni := f.university(prog)
	f.user(defaults(), pair(uni, prog))
	f.unis.err = errors.New("connection reset")

	res, err := f.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailedUsers)
}

type failingSource struct{}

func (failingSource) ForEachWithSavedPrograms(context.Context, func(*profile.Profile) error) error {
	return errors.New("cursor died")
}

func TestSweepAbortsWhenProfilesCannotBeRead(t *testing.T) {
	f := newSweepFixture(t)
	f.sweeper.profiles = failingSource{}

	_, err := f.sweeper.Run(context.Background())
	assert.Error(t, err)
}

func TestDedupKeys(t *testing.T) {
	u, p := primitive.NewObjectID(), primitive.NewObjectID()
	assert.Equal(t, "deadline_alert:"+u.Hex()+":"+p.Hex()+":7", alertKey(u, p, 7))
	assert.Equal(t, "deadline_overdue:"+u.Hex()+":"+p.Hex(), overdueKey(u, p))
	assert.NotEqual(t, alertKey(u, p, 7), alertKey(u, p, 14))
}
