package application

import (
	"context"
	"fmt"
	"time"

	"UniPath/internal/config"
	"UniPath/internal/metrics"
	"UniPath/internal/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type statusTemplate struct {
	typ      notification.Type
	title    string
	message  string
	priority notification.Priority
}

var statusTemplates = map[Status]statusTemplate{
	StatusPending: {notification.TypeApplicationUpdate, "Application Received",
		"Your application to %s has been received.", notification.PriorityMedium},
	StatusUnderReview: {notification.TypeApplicationUpdate, "Application Under Review",
		"Your application to %s is now under review.", notification.PriorityMedium},
	StatusInterviewScheduled: {notification.TypeInterview, "Interview Scheduled",
		"An interview has been scheduled for your application to %s.", notification.PriorityHigh},
	StatusFinalReview: {notification.TypeApplicationUpdate, "Application in Final Review",
		"Your application to %s is in final review.", notification.PriorityMedium},
	StatusAccepted: {notification.TypeAcceptance, "Congratulations! Application Accepted",
		"Your application to %s has been accepted.", notification.PriorityHigh},
	StatusDeclined: {notification.TypeRejection, "Application Decision Available",
		"A decision on your application to %s is available.", notification.PriorityHigh},
	StatusWaitlisted: {notification.TypeWaitlist, "Application Waitlisted",
		"Your application to %s has been waitlisted.", notification.PriorityMedium},
}

// Creator persists a notification.
type Creator interface {
	Create(ctx context.Context, n *notification.Notification) error
}

// StatusNotifier turns status transitions into status notifications.
type StatusNotifier struct {
	ledger Creator
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewStatusNotifier(ledger *notification.Ledger, cfg *config.Config, logger *zap.Logger) *StatusNotifier {
	return newStatusNotifier(ledger, cfg.Notifications.StatusTTL, logger)
}

func newStatusNotifier(ledger Creator, ttl time.Duration, logger *zap.Logger) *StatusNotifier {
	return &StatusNotifier{ledger: ledger, ttl: ttl, now: time.Now, logger: logger}
}

// Build returns the notification for a transition to app.Status, or nil
// when the status did not change.
func (n *StatusNotifier) Build(app *Application, universityName string, old Status, note string) *notification.Notification {
	if app.Status == old {
		return nil
	}
	tmpl, ok := statusTemplates[app.Status]
	if !ok {
		return nil
	}
	msg := fmt.Sprintf(tmpl.message, universityName)
	if note != "" {
		msg += " Note: " + note
	}
	now := n.now()
	expires := now.Add(n.ttl)
	appID := app.ID
	uniID := app.UniversityID
	return &notification.Notification{
		ID:            primitive.NewObjectID(),
		UserID:        app.UserID,
		Category:      notification.CategoryStatus,
		Type:          tmpl.typ,
		Title:         tmpl.title,
		Message:       msg,
		ApplicationID: &appID,
		UniversityID:  &uniID,
		Data: map[string]interface{}{
			"oldStatus": string(old),
			"newStatus": string(app.Status),
		},
		Priority:  tmpl.priority,
		CreatedAt: now,
		ExpiresAt: &expires,
	}
}

// Notify records the transition. Errors are logged and never returned so a
// failed notification cannot fail the status update.
func (n *StatusNotifier) Notify(ctx context.Context, app *Application, universityName string, old Status, note string) {
	notif := n.Build(app, universityName, old, note)
	if notif == nil {
		return
	}
	if err := n.ledger.Create(ctx, notif); err != nil {
		metrics.NotifierFailures.Inc()
		n.logger.Error("status notification failed",
			zap.String("application_id", app.ID.Hex()),
			zap.String("status", string(app.Status)),
			zap.Error(err))
	}
}
