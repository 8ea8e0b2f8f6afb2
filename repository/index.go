package repository

import (
	"context"
	"time"

	"hippocampus/config"
	"hippocampus/utils"

	"github.com/m-mizutani/goerr/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func recordIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "doc_id", Value: 1}},
			Options: options.Index().
				SetName("doc_id_unique").
				SetUnique(true),
		},
		// Listing, newest first
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "date", Value: -1},
			},
			Options: options.Index().
				SetName("user_records_date"),
		},
		// Space recounts
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "space", Value: 1},
			},
			Options: options.Index().
				SetName("user_space"),
		},
	}
}

func SetupIndexes(ctx context.Context, db *mongo.Database, cfg config.MongoConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, name := range []string{cfg.Bookmarks, cfg.Notes} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, recordIndexes()); err != nil {
			return goerr.Wrap(err, "failed to create record indexes", goerr.V("collection", name))
		}
	}

	_, err := db.Collection(cfg.Collections).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("user_id_unique").
			SetUnique(true),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create collection summary index", goerr.V("collection", cfg.Collections))
	}

	utils.Logger.Info("database indexes ready", zap.String("database", db.Name()))
	return nil
}
