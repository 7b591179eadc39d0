package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type MongoDBClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// IndexEnsurer is implemented by repositories that own collection indexes.
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

func NewMongoDBClient(lc fx.Lifecycle, cfg *Config, logger *zap.Logger) (*MongoDBClient, *mongo.Database, error) {
	clientOptions := options.Client().ApplyURI(cfg.Mongo.URI).SetTimeout(cfg.Mongo.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, errors.Wrap(err, "pinging mongodb")
	}

	logger.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing mongodb connection")
			return client.Disconnect(ctx)
		},
	})
	db := client.Database(cfg.Mongo.Database)
	return &MongoDBClient{Client: client, Database: db}, db, nil
}

func (c *MongoDBClient) GetCollection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

// CreateIndexes creates the given indexes on collection, bounded by a short timeout.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, models ...mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		return errors.Wrapf(err, "creating indexes on %s", collection.Name())
	}
	return nil
}

// EnsureAll runs every ensurer in order, stopping at the first failure.
func EnsureAll(ctx context.Context, logger *zap.Logger, ensurers ...IndexEnsurer) error {
	for _, e := range ensurers {
		if err := e.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	logger.Info("indexes ensured", zap.Int("repositories", len(ensurers)))
	return nil
}
