package application

import (
	"context"
	"testing"
	"time"

	"UniPath/internal/notification"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingCreator struct {
	created []*notification.Notification
	err     error
}

func (r *recordingCreator) Create(_ context.Context, n *notification.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, n)
	return nil
}

func newTestNotifier(t *testing.T, c Creator) *StatusNotifier {
	n := newStatusNotifier(c, 90*24*time.Hour, zaptest.NewLogger(t))
	n.now = func() time.Time { return baseTime }
	return n
}

func TestStatusNotifierTable(t *testing.T) {
	tests := []struct {
		old, next    Status
		wantType     notification.Type
		wantTitle    string
		wantPriority notification.Priority
	}{
		{StatusPending, StatusUnderReview, notification.TypeApplicationUpdate, "Application Under Review", notification.PriorityMedium},
		{StatusUnderReview, StatusInterviewScheduled, notification.TypeInterview, "Interview Scheduled", notification.PriorityHigh},
		{StatusInterviewScheduled, StatusFinalReview, notification.TypeApplicationUpdate, "Application in Final Review", notification.PriorityMedium},
		{StatusFinalReview, StatusAccepted, notification.TypeAcceptance, "Congratulations! Application Accepted", notification.PriorityHigh},
		{StatusFinalReview, StatusDeclined, notification.TypeRejection, "Application Decision Available", notification.PriorityHigh},
		{StatusUnderReview, StatusWaitlisted, notification.TypeWaitlist, "Application Waitlisted", notification.PriorityMedium},
		{StatusWaitlisted, StatusPending, notification.TypeApplicationUpdate, "Application Received", notification.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(string(tt.next), func(t *testing.T) {
			rec := &recordingCreator{}
			app := &Application{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Status: tt.next}
			newTestNotifier(t, rec).Notify(context.Background(), app, "TU Delft", tt.old, "")

			require.Len(t, rec.created, 1)
			n := rec.created[0]
			assert.Equal(t, tt.wantType, n.Type)
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.Equal(t, tt.wantPriority, n.Priority)
			assert.Equal(t, notification.CategoryStatus, n.Category)
			assert.Equal(t, app.UserID, n.UserID)
			assert.Contains(t, n.Message, "TU Delft")
		})
	}
}

func TestStatusNotifierAcceptedFromPending(t *testing.T) {
	rec := &recordingCreator{}
	app := &Application{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Status: StatusAccepted}
	newTestNotifier(t, rec).Notify(context.Background(), app, "ETH Zurich", StatusPending, "Welcome aboard")

	require.Len(t, rec.created, 1)
	n := rec.created[0]
	assert.Equal(t, notification.TypeAcceptance, n.Type)
	assert.Equal(t, notification.PriorityHigh, n.Priority)
	require.NotNil(t, n.ExpiresAt)
	assert.Equal(t, baseTime.Add(90*24*time.Hour), *n.ExpiresAt)
	assert.Contains(t, n.Message, "Note: Welcome aboard")
	require.NotNil(t, n.ApplicationID)
	assert.Equal(t, app.ID, *n.ApplicationID)
}

func TestStatusNotifierSameStatus(t *testing.T) {
	rec := &recordingCreator{}
	app := &Application{ID: primitive.NewObjectID(), Status: StatusUnderReview}
	newTestNotifier(t, rec).Notify(context.Background(), app, "X", StatusUnderReview, "")
	assert.Empty(t, rec.created)
}

func TestStatusNotifierSwallowsErrors(t *testing.T) {
	rec := &recordingCreator{err: errors.New("db down")}
	app := &Application{ID: primitive.NewObjectID(), Status: StatusUnderReview}
	assert.NotPanics(t, func() {
		newTestNotifier(t, rec).Notify(context.Background(), app, "X", StatusPending, "")
	})
	assert.Empty(t, rec.created)
}
