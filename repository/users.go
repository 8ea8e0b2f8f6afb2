package repository

import (
	"context"

	"hippocampus/model"
	"hippocampus/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func GetUserRepo(client *mongo.Client, dbName, collection string, retrier *utils.Retrier) *UserRepo {
	return &UserRepo{
		MongoCollection: client.Database(dbName).Collection(collection),
		Retrier:         retrier,
	}
}

type UserRepo struct {
	MongoCollection *mongo.Collection
	Retrier         *utils.Retrier
}

// UpsertUser records the latest sign-in of user. It reports whether the user
// was seen for the first time.
func (r *UserRepo) UpsertUser(ctx context.Context, user *model.User) (bool, error) {
	timer := utils.TrackDBOperation("upsert", "users")
	defer timer.ObserveDuration()

	update := bson.M{
		"$set": bson.M{
			"email":           user.Email,
			"role":            user.Role,
			"full_name":       user.FullName,
			"picture":         user.Picture,
			"issuer":          user.Issuer,
			"provider":        user.Provider,
			"providers":       user.Providers,
			"last_sign_in_at": user.LastSignInAt,
			"last_user_agent": user.LastUserAgent,
		},
		"$setOnInsert": bson.M{
			"created_at": user.CreatedAt,
		},
	}

	created := false
	err := r.Retrier.Do(ctx, "users.upsert", func(ctx context.Context) error {
		result, err := r.MongoCollection.UpdateOne(ctx,
			bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
		created = result.UpsertedCount > 0
		return nil
	})
	return created, err
}

// FindUser returns nil when no user has the id.
func (r *UserRepo) FindUser(ctx context.Context, userID string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user *model.User
	err := r.Retrier.Do(ctx, "users.find", func(ctx context.Context) error {
		var found model.User
		err := r.MongoCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&found)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return err
		}
		user = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
