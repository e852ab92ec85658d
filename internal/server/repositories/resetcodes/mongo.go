package resetcodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll, now: time.Now}
}

func (r *MongoRepository) Insert(ctx context.Context, code *models.ResetCode) error {
	if code.ID.IsZero() {
		code.ID = primitive.NewObjectID()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = r.now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) LatestUnused(ctx context.Context, key cryptox.LookupKey) (models.ResetCode, error) {
	filter := bson.D{{Key: "lookupKey", Value: key.String()}, {Key: "used", Value: false}}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var code models.ResetCode
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&code); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ResetCode{}, common.ErrNotFound
		}
		return models.ResetCode{}, fmt.Errorf("db error: %w", err)
	}
	return code, nil
}

func (r *MongoRepository) ReserveAttempt(ctx context.Context, id primitive.ObjectID, max int) (int, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "used", Value: false},
		{Key: "attempts", Value: bson.D{{Key: "$lt", Value: max}}},
	}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "attempts", Value: 1}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var code models.ResetCode
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&code); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, common.ErrTooManyAttempts
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return code.Attempts, nil
}

func (r *MongoRepository) MarkUsed(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "used", Value: false}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "used", Value: true}}}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}
