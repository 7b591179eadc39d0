package notification

import (
	"context"
	"time"

	"UniPath/internal/apperr"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	deadlineField  = "deadline_notifications"
	dedupKeysField = "deadline_dedup_keys"
)

// DeadlineRepository stores deadline-category notifications embedded in the
// owner's profile document. Listing loads the embedded array and pages it in
// memory; writes use positional array operators so the profile is never
// rewritten whole.
type DeadlineRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewDeadlineRepository(db *mongo.Database) *DeadlineRepository {
	return &DeadlineRepository{collection: db.Collection("profiles"), now: time.Now}
}

func (r *DeadlineRepository) load(ctx context.Context, userID primitive.ObjectID) ([]Notification, error) {
	var doc struct {
		Entries []Notification `bson:"deadline_notifications"`
	}
	opts := options.FindOne().SetProjection(bson.M{deadlineField: 1})
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errors.Wrap(err, "loading deadline notifications")
	}
	return doc.Entries, nil
}

func (r *DeadlineRepository) Create(ctx context.Context, n *Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.Category = CategoryDeadline
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": n.UserID},
		bson.M{"$push": bson.M{deadlineField: n}},
	)
	if err != nil {
		return errors.Wrap(err, "pushing deadline notification")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("profile")
	}
	return nil
}

// AppendUnique writes entries for one user in a single batch. Each entry is
// pushed only if its dedup key has never been recorded for the profile, so
// reruns are no-ops. Keys live in their own set, which deleting or purging
// entries leaves alone. It returns the number of entries actually appended.
func (r *DeadlineRepository) AppendUnique(ctx context.Context, userID primitive.ObjectID, entries []Notification) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(entries))
	for i := range entries {
		n := entries[i]
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		n.UserID = userID
		n.Category = CategoryDeadline
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{
				"user_id":                    userID,
				dedupKeysField:               bson.M{"$ne": n.DedupKey},
				deadlineField + ".dedup_key": bson.M{"$ne": n.DedupKey},
			}).
			SetUpdate(bson.M{
				"$push":     bson.M{deadlineField: n},
				"$addToSet": bson.M{dedupKeysField: n.DedupKey},
			}))
	}
	res, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, errors.Wrap(err, "appending deadline notifications")
	}
	return int(res.ModifiedCount), nil
}

func (r *DeadlineRepository) List(ctx context.Context, userID primitive.ObjectID, q Query) (*Page, error) {
	q = q.Normalize()
	entries, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return paginate(filterEntries(entries, q, r.now()), q), nil
}

func (r *DeadlineRepository) ListUnread(ctx context.Context, userID primitive.ObjectID) ([]Notification, error) {
	entries, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread := false
	return filterEntries(entries, Query{Read: &unread}, r.now()), nil
}

func (r *DeadlineRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	unread, err := r.ListUnread(ctx, userID)
	return int64(len(unread)), err
}

// countMatching counts entries whose id is in ids (or all when ids is empty)
// and that satisfy keep.
func (r *DeadlineRepository) countMatching(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID, keep func(Notification) bool) (int64, error) {
	entries, err := r.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	set := idSet(ids)
	var n int64
	for _, e := range entries {
		if len(ids) > 0 && !set[e.ID] {
			continue
		}
		if keep(e) {
			n++
		}
	}
	return n, nil
}

func (r *DeadlineRepository) MarkRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	count, err := r.countMatching(ctx, userID, ids, func(n Notification) bool { return !n.Read })
	if err != nil || count == 0 {
		return 0, err
	}

	elem := bson.M{"n.read": false}
	if len(ids) > 0 {
		elem["n._id"] = bson.M{"$in": ids}
	}
	now := r.now()
	update := bson.M{"$set": bson.M{
		deadlineField + ".$[n].read":    true,
		deadlineField + ".$[n].read_at": now,
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{elem}})
	if _, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, opts); err != nil {
		return 0, errors.Wrap(err, "marking deadline notifications read")
	}
	return count, nil
}

func (r *DeadlineRepository) Exists(ctx context.Context, userID, id primitive.ObjectID) (bool, error) {
	n, err := r.countMatching(ctx, userID, []primitive.ObjectID{id}, func(Notification) bool { return true })
	return n > 0, err
}

func (r *DeadlineRepository) Delete(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := r.countMatching(ctx, userID, ids, func(Notification) bool { return true })
	if err != nil || count == 0 {
		return 0, err
	}
	update := bson.M{"$pull": bson.M{deadlineField: bson.M{"_id": bson.M{"$in": ids}}}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update); err != nil {
		return 0, errors.Wrap(err, "deleting deadline notifications")
	}
	return count, nil
}

func (r *DeadlineRepository) DeleteRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.countMatching(ctx, userID, nil, func(n Notification) bool { return n.Read })
	if err != nil || count == 0 {
		return 0, err
	}
	update := bson.M{"$pull": bson.M{deadlineField: bson.M{"read": true}}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update); err != nil {
		return 0, errors.Wrap(err, "deleting read deadline notifications")
	}
	return count, nil
}

// ReadBefore reports whether PurgeRead with cutoff removes n.
func ReadBefore(n Notification, cutoff time.Time) bool {
	return n.Read && n.CreatedAt.Before(cutoff)
}

func readBefore(cutoff time.Time) bson.M {
	return bson.M{"read": true, "created_at": bson.M{"$lt": cutoff}}
}

// PurgeRead removes read entries created before cutoff from every profile and
// returns how many profiles were modified. Dedup keys are kept, so a purged
// alert or overdue notice is not created again.
func (r *DeadlineRepository) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{deadlineField: bson.M{"$elemMatch": readBefore(cutoff)}}
	update := bson.M{"$pull": bson.M{deadlineField: readBefore(cutoff)}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, errors.Wrap(err, "purging read deadline notifications")
	}
	return res.ModifiedCount, nil
}
