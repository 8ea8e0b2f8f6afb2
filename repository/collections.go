package repository

import (
	"context"

	"hippocampus/model"
	"hippocampus/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionsRepo maintains the per-user tag count summaries.
type CollectionsRepo struct {
	MongoCollection *mongo.Collection
	Retrier         *utils.Retrier
}

func GetCollectionsRepo(client *mongo.Client, dbName, collection string, retrier *utils.Retrier) *CollectionsRepo {
	return &CollectionsRepo{
		MongoCollection: client.Database(dbName).Collection(collection),
		Retrier:         retrier,
	}
}

// Get returns the user's summary, creating an empty one on first access.
func (r *CollectionsRepo) Get(ctx context.Context, userID string) (*model.CollectionSummary, error) {
	timer := utils.TrackDBOperation("find_or_create", r.MongoCollection.Name())
	defer timer.ObserveDuration()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var summary model.CollectionSummary
	err := r.Retrier.Do(ctx, "collections.get", func(ctx context.Context) error {
		return r.MongoCollection.FindOneAndUpdate(ctx,
			bson.M{"userId": userID},
			bson.M{"$setOnInsert": bson.M{"collections": bson.A{}}},
			opts,
		).Decode(&summary)
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Replace overwrites the user's entries with counts in the current shape.
func (r *CollectionsRepo) Replace(ctx context.Context, userID string, counts []model.TagCount) error {
	timer := utils.TrackDBOperation("replace", r.MongoCollection.Name())
	defer timer.ObserveDuration()

	if counts == nil {
		counts = []model.TagCount{}
	}
	return r.Retrier.Do(ctx, "collections.replace", func(ctx context.Context) error {
		_, err := r.MongoCollection.UpdateOne(ctx,
			bson.M{"userId": userID},
			bson.M{"$set": bson.M{"collections": counts}},
			options.Update().SetUpsert(true),
		)
		return err
	})
}

// Increment bumps the count of name, adding the entry when it is missing.
// The $inc is not idempotent, so only the pre-flight ping is retried.
func (r *CollectionsRepo) Increment(ctx context.Context, userID, name string) error {
	timer := utils.TrackDBOperation("increment", r.MongoCollection.Name())
	defer timer.ObserveDuration()

	return r.Retrier.DoOnce(ctx, "collections.increment", func(ctx context.Context) error {
		matched, err := r.incrementExisting(ctx, userID, name)
		if err != nil || matched {
			return err
		}

		_, err = r.MongoCollection.UpdateOne(ctx,
			bson.M{"userId": userID, "collections.name": bson.M{"$ne": name}},
			bson.M{"$push": bson.M{"collections": model.TagCount{Name: name, MemoryCount: 1}}},
			options.Update().SetUpsert(true),
		)
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent request added the entry between the two updates.
			_, err = r.incrementExisting(ctx, userID, name)
		}
		return err
	})
}

func (r *CollectionsRepo) incrementExisting(ctx context.Context, userID, name string) (bool, error) {
	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"userId": userID, "collections.name": name},
		bson.M{"$inc": bson.M{"collections.$.memory_count": 1}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// Decrement lowers the count of name and drops entries that reach zero.
func (r *CollectionsRepo) Decrement(ctx context.Context, userID, name string) error {
	timer := utils.TrackDBOperation("decrement", r.MongoCollection.Name())
	defer timer.ObserveDuration()

	return r.Retrier.DoOnce(ctx, "collections.decrement", func(ctx context.Context) error {
		_, err := r.MongoCollection.UpdateOne(ctx,
			bson.M{"userId": userID, "collections.name": name},
			bson.M{"$inc": bson.M{"collections.$.memory_count": -1}},
		)
		if err != nil {
			return err
		}

		_, err = r.MongoCollection.UpdateOne(ctx,
			bson.M{"userId": userID},
			bson.M{"$pull": bson.M{"collections": bson.M{"memory_count": bson.M{"$lte": 0}}}},
		)
		return err
	})
}
