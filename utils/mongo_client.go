package utils

import (
	"context"

	"hippocampus/config"

	"github.com/m-mizutani/goerr/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// MongoClient is a global variable holding the MongoDB client
var MongoClient *mongo.Client

// ConnectMongo opens the pool described by cfg, verifies it with a ping and
// stores the client in MongoClient.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := cfg.ClientOptions().SetPoolMonitor(MongoPoolMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to MongoDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, goerr.Wrap(err, "failed to ping MongoDB", goerr.V("database", cfg.DatabaseName))
	}

	Logger.Info("connected to MongoDB",
		zap.String("database", cfg.DatabaseName),
		zap.Uint64("max_pool_size", cfg.MaxPoolSize))

	MongoClient = client
	return client, nil
}

// PingMongo is the pre-flight check run before retryable database calls.
func PingMongo(client *mongo.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}
