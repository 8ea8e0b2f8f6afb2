package repository

import (
	"context"

	"hippocampus/model"
	"hippocampus/utils"

	"github.com/m-mizutani/goerr/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordsRepo stores one kind of record (bookmarks or notes) keyed by doc_id.
type RecordsRepo struct {
	MongoCollection *mongo.Collection
	Retrier         *utils.Retrier
}

func GetRecordsRepo(client *mongo.Client, dbName, collection string, retrier *utils.Retrier) *RecordsRepo {
	return &RecordsRepo{
		MongoCollection: client.Database(dbName).Collection(collection),
		Retrier:         retrier,
	}
}

func (r *RecordsRepo) name() string {
	return r.MongoCollection.Name()
}

// Insert stores rec. A duplicate key on a retried attempt means an earlier
// attempt landed and is treated as success.
func (r *RecordsRepo) Insert(ctx context.Context, rec *model.Record) error {
	timer := utils.TrackDBOperation("insert", r.name())
	defer timer.ObserveDuration()

	attempts := 0
	return r.Retrier.Do(ctx, r.name()+".insert", func(ctx context.Context) error {
		attempts++
		result, err := r.MongoCollection.InsertOne(ctx, rec)
		if err != nil {
			if attempts > 1 && mongo.IsDuplicateKeyError(err) {
				return nil
			}
			return err
		}
		if id, ok := result.InsertedID.(primitive.ObjectID); ok {
			rec.ID = id
		}
		return nil
	})
}

// ListByUser returns the user's records, newest first.
func (r *RecordsRepo) ListByUser(ctx context.Context, userID string) ([]model.Record, error) {
	timer := utils.TrackDBOperation("find", r.name())
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	records := make([]model.Record, 0)
	err := r.Retrier.Do(ctx, r.name()+".find", func(ctx context.Context) error {
		cursor, err := r.MongoCollection.Find(ctx, bson.M{"user_id": userID}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		var found []model.Record
		if err := cursor.All(ctx, &found); err != nil {
			return err
		}
		if found != nil {
			records = found
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByDocID returns nil when the user owns no record with docID.
func (r *RecordsRepo) FindByDocID(ctx context.Context, userID, docID string) (*model.Record, error) {
	timer := utils.TrackDBOperation("find_one", r.name())
	defer timer.ObserveDuration()

	var rec *model.Record
	err := r.Retrier.Do(ctx, r.name()+".find_one", func(ctx context.Context) error {
		var found model.Record
		err := r.MongoCollection.FindOne(ctx, bson.M{"doc_id": docID, "user_id": userID}).Decode(&found)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return err
		}
		rec = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update rewrites the editable fields of rec. It reports false when the user
// owns no record with that doc_id.
func (r *RecordsRepo) Update(ctx context.Context, rec *model.Record) (bool, error) {
	timer := utils.TrackDBOperation("update", r.name())
	defer timer.ObserveDuration()

	filter := bson.M{"doc_id": rec.DocID, "user_id": rec.UserID}
	update := bson.M{
		"$set": bson.M{
			"title":      rec.Title,
			"note":       rec.Note,
			"space":      rec.Space,
			"updated_at": rec.UpdatedAt,
		},
	}

	matched := false
	err := r.Retrier.Do(ctx, r.name()+".update", func(ctx context.Context) error {
		result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
		if err != nil {
			return err
		}
		matched = result.MatchedCount > 0
		return nil
	})
	return matched, err
}

// DeleteByDocID removes the user's record and returns it, or nil when there
// was nothing to remove.
func (r *RecordsRepo) DeleteByDocID(ctx context.Context, userID, docID string) (*model.Record, error) {
	timer := utils.TrackDBOperation("delete", r.name())
	defer timer.ObserveDuration()

	var deleted *model.Record
	err := r.Retrier.Do(ctx, r.name()+".delete", func(ctx context.Context) error {
		var found model.Record
		err := r.MongoCollection.FindOneAndDelete(ctx, bson.M{"doc_id": docID, "user_id": userID}).Decode(&found)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return err
		}
		deleted = &found
		return nil
	})
	return deleted, err
}

// CountBySpace groups the user's records by space.
func (r *RecordsRepo) CountBySpace(ctx context.Context, userID string) (map[string]int, error) {
	timer := utils.TrackDBOperation("aggregate", r.name())
	defer timer.ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$space", "count": bson.M{"$sum": 1}}}},
	}

	counts := make(map[string]int)
	err := r.Retrier.Do(ctx, r.name()+".aggregate", func(ctx context.Context) error {
		cursor, err := r.MongoCollection.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		var rows []struct {
			Space string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return err
		}
		for _, row := range rows {
			space := row.Space
			if space == "" {
				space = utils.DefaultSpace
			}
			counts[space] += row.Count
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count records by space", goerr.V("user_id", userID))
	}
	return counts, nil
}

