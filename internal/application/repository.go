package application

import (
	"context"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/config"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationRepository struct {
	collection *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{collection: db.Collection("applications")}
}

// EnsureIndexes creates the partial unique index that allows a single
// active application per (user, university).
func (r *ApplicationRepository) EnsureIndexes(ctx context.Context) error {
	return config.CreateIndexes(ctx, r.collection,
		mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "university_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_active_per_university").
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}},
	)
}

func (r *ApplicationRepository) Create(ctx context.Context, app *Application) error {
	if _, err := r.collection.InsertOne(ctx, app); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("an active application for this university already exists")
		}
		return errors.Wrap(err, "inserting application")
	}
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Application, error) {
	var app Application
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("application")
		}
		return nil, errors.Wrap(err, "finding application")
	}
	return &app, nil
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, q ListQuery) ([]Application, int64, error) {
	filter := bson.M{"user_id": userID}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting applications")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "finding applications")
	}
	var out []Application
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, errors.Wrap(err, "decoding applications")
	}
	return out, total, nil
}

// UpdateContent sets fields on an active application owned by userID.
func (r *ApplicationRepository) UpdateContent(ctx context.Context, id, userID primitive.ObjectID, set bson.M) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID, "active": true},
		bson.M{"$set": set},
	)
	if err != nil {
		return errors.Wrap(err, "updating application")
	}
	if res.MatchedCount == 0 {
		return apperr.Conflict("application can no longer be edited")
	}
	return nil
}

// UpdateStatus moves the application from status from to entry.Status. The
// write only applies if the stored status still equals from.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from Status, entry HistoryEntry) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$set": bson.M{
				"status":     entry.Status,
				"active":     !entry.Status.Terminal(),
				"updated_at": entry.ChangedAt,
			},
			"$push": bson.M{"status_history": entry},
		},
	)
	if err != nil {
		return errors.Wrap(err, "updating application status")
	}
	if res.MatchedCount == 0 {
		return apperr.Conflict("application status changed concurrently")
	}
	return nil
}

// Delete removes an active application owned by userID.
func (r *ApplicationRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID, "active": true})
	if err != nil {
		return errors.Wrap(err, "deleting application")
	}
	if res.DeletedCount == 0 {
		return apperr.Conflict("application can no longer be withdrawn")
	}
	return nil
}

func contentUpdate(req UpdateRequest, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if req.Semester != nil {
		set["semester"] = *req.Semester
	}
	if req.Year != nil {
		set["year"] = *req.Year
	}
	if req.Subject != nil {
		set["subject"] = *req.Subject
	}
	if req.PersonalStatement != nil {
		set["personal_statement"] = *req.PersonalStatement
	}
	if req.Metadata != nil {
		set["metadata"] = *req.Metadata
	}
	return set
}
