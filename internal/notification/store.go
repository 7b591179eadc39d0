package notification

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the per-category contract of the notification ledger.
// MarkRead with no ids marks every unread entry of the user.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, userID primitive.ObjectID, q Query) (*Page, error)
	ListUnread(ctx context.Context, userID primitive.ObjectID) ([]Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	Exists(ctx context.Context, userID, id primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	DeleteRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// filterEntries applies expiry and query filters to in-memory entries and
// returns them newest first.
func filterEntries(entries []Notification, q Query, now time.Time) []Notification {
	out := make([]Notification, 0, len(entries))
	for _, n := range entries {
		if n.Expired(now) {
			continue
		}
		if q.Type != "" && n.Type != q.Type {
			continue
		}
		if q.Read != nil && n.Read != *q.Read {
			continue
		}
		out = append(out, n)
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
}

// paginate slices already-filtered entries with the same offset semantics
// the database listing uses.
func paginate(entries []Notification, q Query) *Page {
	total := int64(len(entries))
	start := q.skip()
	if start > len(entries) {
		start = len(entries)
	}
	end := start + q.Limit
	if end > len(entries) {
		end = len(entries)
	}
	return newPage(entries[start:end], total, q)
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
