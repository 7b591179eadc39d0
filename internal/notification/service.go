package notification

import (
	"context"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/metrics"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ledger is the single entry point for both notification categories.
type Ledger struct {
	stores map[Category]Store
	now    func() time.Time
}

func NewLedger(status, deadline Store) *Ledger {
	return &Ledger{
		stores: map[Category]Store{
			CategoryStatus:   status,
			CategoryDeadline: deadline,
		},
		now: time.Now,
	}
}

// NewLedgerFromRepositories is the fx constructor.
func NewLedgerFromRepositories(status *NotificationRepository, deadline *DeadlineRepository) *Ledger {
	return NewLedger(status, deadline)
}

func (l *Ledger) store(c Category) (Store, error) {
	s, ok := l.stores[c]
	if !ok {
		return nil, apperr.NewValidationError(errors.Errorf("unknown notification category %q", c))
	}
	return s, nil
}

// Create stores n in the store for its category. No uniqueness check is made.
func (l *Ledger) Create(ctx context.Context, n *Notification) error {
	if !n.Type.Valid() {
		return apperr.NewValidationError(errors.Errorf("unknown notification type %q", n.Type))
	}
	s, err := l.store(n.Category)
	if err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = l.now()
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if err := s.Create(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Category), string(n.Type)).Inc()
	return nil
}

func (l *Ledger) List(ctx context.Context, c Category, userID primitive.ObjectID, q Query) (*Page, error) {
	s, err := l.store(c)
	if err != nil {
		return nil, err
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, apperr.NewValidationError(errors.Errorf("unknown notification type %q", q.Type),
			apperr.FieldError{Field: "type", Error: "unknown notification type"})
	}
	return s.List(ctx, userID, q.Normalize())
}

// ListUnread merges unread entries of every category, newest first.
func (l *Ledger) ListUnread(ctx context.Context, userID primitive.ObjectID) ([]Notification, error) {
	var all []Notification
	for _, c := range []Category{CategoryStatus, CategoryDeadline} {
		items, err := l.stores[c].ListUnread(ctx, userID)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	sortNewestFirst(all)
	if all == nil {
		all = []Notification{}
	}
	return all, nil
}

// UnreadCount sums unread entries across categories.
func (l *Ledger) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var total int64
	for _, c := range []Category{CategoryStatus, CategoryDeadline} {
		n, err := l.stores[c].CountUnread(ctx, userID)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// MarkRead marks ids read in category c; no ids means all unread entries.
func (l *Ledger) MarkRead(ctx context.Context, c Category, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	s, err := l.store(c)
	if err != nil {
		return 0, err
	}
	return s.MarkRead(ctx, userID, ids)
}

// MarkOneRead marks a single entry read. Marking an entry that is already
// read succeeds; ErrNotFound means the user has no such entry in c.
func (l *Ledger) MarkOneRead(ctx context.Context, c Category, userID, id primitive.ObjectID) error {
	s, err := l.store(c)
	if err != nil {
		return err
	}
	n, err := s.MarkRead(ctx, userID, []primitive.ObjectID{id})
	if err != nil || n > 0 {
		return err
	}
	ok, err := s.Exists(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("notification")
	}
	return nil
}

// MarkAllRead marks every unread entry of every category read.
func (l *Ledger) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var total int64
	for _, c := range []Category{CategoryStatus, CategoryDeadline} {
		n, err := l.stores[c].MarkRead(ctx, userID, nil)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (l *Ledger) Delete(ctx context.Context, c Category, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	s, err := l.store(c)
	if err != nil {
		return 0, err
	}
	return s.Delete(ctx, userID, ids)
}

func (l *Ledger) DeleteRead(ctx context.Context, c Category, userID primitive.ObjectID) (int64, error) {
	s, err := l.store(c)
	if err != nil {
		return 0, err
	}
	return s.DeleteRead(ctx, userID)
}

// ParseIDs converts hex ids, reporting the first invalid one as a field error.
func ParseIDs(field string, hexIDs []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, apperr.NewValidationError(errors.New("invalid id"),
				apperr.FieldError{Field: field, Error: "invalid id " + h})
		}
		ids = append(ids, id)
	}
	return ids, nil
}
