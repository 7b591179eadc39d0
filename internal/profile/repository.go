package profile

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

type ProfileRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{collection: db.Collection("profiles"), now: time.Now}
}

func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	return config.CreateIndexes(ctx, r.collection,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{
			Keys: bson.D{{Key: "saved_programs.university_id", Value: 1}},
		},
	)
}

// GetOrCreate returns the user's profile, creating it with prefs on first use.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID primitive.ObjectID, prefs AlertPreferences) (*Profile, error) {
	now := r.now()
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":                userID,
		"target_countries":       bson.A{},
		"saved_programs":         bson.A{},
		"deadline_notifications": bson.A{},
		"alert_preferences":      prefs,
		"created_at":             now,
		"updated_at":             now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p Profile
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&p)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent upsert won; the document exists now
		err = r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading profile")
	}
	return &p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, userID primitive.ObjectID, req UpdateRequest) error {
	set := bson.M{"updated_at": r.now()}
	if req.Nationality != nil {
		set["nationality"] = *req.Nationality
	}
	if req.TargetCountries != nil {
		set["target_countries"] = req.TargetCountries
	}
	if req.TargetDegreeLevel != nil {
		set["target_degree_level"] = *req.TargetDegreeLevel
	}
	if req.GPA != nil {
		set["gpa"] = *req.GPA
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("profile")
	}
	return nil
}

// SaveProgram appends sp unless the same university/program pair is already
// saved; the check and the push are one conditional write.
func (r *ProfileRepository) SaveProgram(ctx context.Context, userID primitive.ObjectID, sp SavedProgram) error {
	filter := bson.M{
		"user_id": userID,
		"saved_programs": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"university_id": sp.UniversityID,
			"program_id":    sp.ProgramID,
		}}},
	}
	update := bson.M{
		"$push": bson.M{"saved_programs": sp},
		"$set":  bson.M{"updated_at": r.now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "saving program")
	}
	if res.MatchedCount == 0 {
		return apperr.Conflict("program already saved")
	}
	return nil
}

func (r *ProfileRepository) RemoveProgram(ctx context.Context, userID, savedID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"saved_programs": bson.M{"_id": savedID}},
		"$set":  bson.M{"updated_at": r.now()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID, "saved_programs._id": savedID}, update)
	if err != nil {
		return errors.Wrap(err, "removing saved program")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("saved program")
	}
	return nil
}

func (r *ProfileRepository) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs AlertPreferences) error {
	update := bson.M{"$set": bson.M{"alert_preferences": prefs, "updated_at": r.now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return errors.Wrap(err, "updating alert preferences")
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("profile")
	}
	return nil
}

// ForEachWithSavedPrograms streams every profile that has at least one saved
// program. Iteration stops at the first error fn returns.
func (r *ProfileRepository) ForEachWithSavedPrograms(ctx context.Context, fn func(*Profile) error) error {
	cursor, err := r.collection.Find(ctx, bson.M{"saved_programs.0": bson.M{"$exists": true}})
	if err != nil {
		return errors.Wrap(err, "finding profiles")
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var p Profile
		if err := cursor.Decode(&p); err != nil {
			return errors.Wrap(err, "decoding profile")
		}
		if err := fn(&p); err != nil {
			return err
		}
	}
	return errors.Wrap(cursor.Err(), "iterating profiles")
}
