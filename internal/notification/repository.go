package notification

import (
	"context"
	"time"

	"UniPath/internal/config"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository stores status-category notifications in their own
// collection. Expired documents are removed by a TTL index and filtered out
// at query time until the TTL monitor catches up.
type NotificationRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection("notifications"), now: time.Now}
}

func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	return config.CreateIndexes(ctx, r.collection,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
		mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "type", Value: 1}, {Key: "created_at", Value: -1}},
		},
		mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}},
		},
	)
}

func (r *NotificationRepository) notExpired() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"expires_at": nil},
		bson.M{"expires_at": bson.M{"$gt": r.now()}},
	}}
}

func (r *NotificationRepository) userFilter(userID primitive.ObjectID) bson.M {
	f := r.notExpired()
	f["user_id"] = userID
	return f
}

func (r *NotificationRepository) Create(ctx context.Context, n *Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.Category = CategoryStatus
	_, err := r.collection.InsertOne(ctx, n)
	return errors.Wrap(err, "inserting notification")
}

func (r *NotificationRepository) List(ctx context.Context, userID primitive.ObjectID, q Query) (*Page, error) {
	q = q.Normalize()
	filter := r.userFilter(userID)
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.Read != nil {
		filter["read"] = *q.Read
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "counting notifications")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(q.skip())).
		SetLimit(int64(q.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding notifications")
	}
	var items []Notification
	if err := cursor.All(ctx, &items); err != nil {
		return nil, errors.Wrap(err, "decoding notifications")
	}
	return newPage(items, total, q), nil
}

func (r *NotificationRepository) ListUnread(ctx context.Context, userID primitive.ObjectID) ([]Notification, error) {
	filter := r.userFilter(userID)
	filter["read"] = false
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "finding unread notifications")
	}
	var items []Notification
	if err := cursor.All(ctx, &items); err != nil {
		return nil, errors.Wrap(err, "decoding unread notifications")
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := r.userFilter(userID)
	filter["read"] = false
	n, err := r.collection.CountDocuments(ctx, filter)
	return n, errors.Wrap(err, "counting unread notifications")
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	filter := bson.M{"user_id": userID, "read": false}
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": ids}
	}
	update := bson.M{"$set": bson.M{"read": true, "read_at": r.now()}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return res.ModifiedCount, nil
}

func (r *NotificationRepository) Exists(ctx context.Context, userID, id primitive.ObjectID) (bool, error) {
	filter := r.userFilter(userID)
	filter["_id"] = id
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "checking notification")
	}
	return n > 0, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID, "_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "deleting notifications")
	}
	return res.DeletedCount, nil
}

func (r *NotificationRepository) DeleteRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID, "read": true})
	if err != nil {
		return 0, errors.Wrap(err, "deleting read notifications")
	}
	return res.DeletedCount, nil
}

// PurgeExpired removes expired documents the TTL monitor has not reached yet.
func (r *NotificationRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": r.now()}})
	if err != nil {
		return 0, errors.Wrap(err, "purging expired notifications")
	}
	return res.DeletedCount, nil
}
