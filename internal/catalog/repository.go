package catalog

import (
	"context"
	"regexp"

	"UniPath/internal/apperr"
	"UniPath/internal/config"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func findPage(ctx context.Context, coll *mongo.Collection, filter bson.M, f ListFilter, sort bson.D, out interface{}) (int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrapf(err, "counting %s", coll.Name())
	}
	opts := options.Find().
		SetSort(sort).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, errors.Wrapf(err, "finding %s", coll.Name())
	}
	if err := cursor.All(ctx, out); err != nil {
		return 0, errors.Wrapf(err, "decoding %s", coll.Name())
	}
	return total, nil
}

func prefix(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s), Options: "i"}
}

type UniversityRepository struct {
	collection *mongo.Collection
}

func NewUniversityRepository(db *mongo.Database) *UniversityRepository {
	return &UniversityRepository{collection: db.Collection("universities")}
}

func (r *UniversityRepository) EnsureIndexes(ctx context.Context) error {
	return config.CreateIndexes(ctx, r.collection,
		mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		mongo.IndexModel{Keys: bson.D{{Key: "country", Value: 1}}},
	)
}

func (r *UniversityRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*University, error) {
	var u University
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding university")
	}
	return &u, nil
}

// FindByIDs resolves many universities in one query. Missing ids are
// simply absent from the result.
func (r *UniversityRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]University, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "finding universities")
	}
	var out []University
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decoding universities")
	}
	return out, nil
}

func (r *UniversityRepository) Create(ctx context.Context, u *University) error {
	if _, err := r.collection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("university already exists")
		}
		return errors.Wrap(err, "inserting university")
	}
	return nil
}

func (r *UniversityRepository) List(ctx context.Context, f ListFilter) ([]University, int64, error) {
	f = f.normalize()
	filter := bson.M{}
	if f.Country != "" {
		filter["country"] = f.Country
	}
	if f.DegreeLevel != "" {
		filter["programs.degree_level"] = f.DegreeLevel
	}
	if f.Search != "" {
		filter["name"] = prefix(f.Search)
	}
	var out []University
	total, err := findPage(ctx, r.collection, filter, f, bson.D{{Key: "ranking", Value: 1}, {Key: "name", Value: 1}}, &out)
	return out, total, err
}

type ScholarshipRepository struct {
	collection *mongo.Collection
}

func NewScholarshipRepository(db *mongo.Database) *ScholarshipRepository {
	return &ScholarshipRepository{collection: db.Collection("scholarships")}
}

func (r *ScholarshipRepository) EnsureIndexes(ctx context.Context) error {
	return config.CreateIndexes(ctx, r.collection, mongo.IndexModel{
		Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}

func (r *ScholarshipRepository) Create(ctx context.Context, s *Scholarship) error {
	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("scholarship already exists for this provider")
		}
		return errors.Wrap(err, "inserting scholarship")
	}
	return nil
}

func (r *ScholarshipRepository) List(ctx context.Context, f ListFilter) ([]Scholarship, int64, error) {
	f = f.normalize()
	filter := bson.M{}
	if f.Country != "" {
		filter["countries"] = f.Country
	}
	if f.DegreeLevel != "" {
		filter["degree_levels"] = f.DegreeLevel
	}
	if f.Search != "" {
		filter["name"] = prefix(f.Search)
	}
	var out []Scholarship
	total, err := findPage(ctx, r.collection, filter, f, bson.D{{Key: "deadline", Value: 1}}, &out)
	return out, total, err
}

type ResourceRepository struct {
	collection *mongo.Collection
}

func NewResourceRepository(db *mongo.Database) *ResourceRepository {
	return &ResourceRepository{collection: db.Collection("resources")}
}

func (r *ResourceRepository) EnsureIndexes(ctx context.Context) error {
	return config.CreateIndexes(ctx, r.collection, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}

func (r *ResourceRepository) Create(ctx context.Context, res *Resource) error {
	if _, err := r.collection.InsertOne(ctx, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("resource slug already taken")
		}
		return errors.Wrap(err, "inserting resource")
	}
	return nil
}

func (r *ResourceRepository) List(ctx context.Context, f ListFilter) ([]Resource, int64, error) {
	f = f.normalize()
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		filter["title"] = prefix(f.Search)
	}
	var out []Resource
	total, err := findPage(ctx, r.collection, filter, f, bson.D{{Key: "created_at", Value: -1}}, &out)
	return out, total, err
}
