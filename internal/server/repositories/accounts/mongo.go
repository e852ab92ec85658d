package accounts

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

func (r *MongoRepository) Insert(ctx context.Context, acc *models.Account) error {
	if acc.ID.IsZero() {
		acc.ID = primitive.NewObjectID()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = r.now().UTC()
	}

	_, err := r.coll.InsertOne(ctx, acc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (models.Account, error) {
	var acc models.Account
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Account{}, common.ErrNotFound
		}
		return models.Account{}, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

func (r *MongoRepository) FindByLookupKey(ctx context.Context, key cryptox.LookupKey) (models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "lookupKey", Value: key.String()}})
}

func (r *MongoRepository) FindActive(ctx context.Context, key cryptox.LookupKey) (models.Account, error) {
	return r.findOne(ctx, activeFilter(key))
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoRepository) UpdateProfile(ctx context.Context, key cryptox.LookupKey, upd ProfileUpdate) (models.Account, error) {
	set := bson.D{
		{Key: "encryptedName", Value: upd.EncryptedName},
		{Key: "encryptedEmail", Value: upd.EncryptedEmail},
		{Key: "phone", Value: upd.Profile.Phone},
		{Key: "position", Value: upd.Profile.Position},
		{Key: "department", Value: upd.Profile.Department},
		{Key: "company", Value: upd.Profile.Company},
		{Key: "location", Value: upd.Profile.Location},
		{Key: "joinDate", Value: upd.Profile.JoinDate},
		{Key: "bio", Value: upd.Profile.Bio},
		{Key: "linkedin", Value: upd.Profile.LinkedIn},
		{Key: "twitter", Value: upd.Profile.Twitter},
		{Key: "updatedAt", Value: r.now().UTC()},
	}
	if upd.Image != nil {
		set = append(set,
			bson.E{Key: "imageUrl", Value: upd.Image.URL},
			bson.E{Key: "imagePublicId", Value: upd.Image.PublicID},
		)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var before models.Account
	err := r.coll.FindOneAndUpdate(ctx, activeFilter(key), bson.D{{Key: "$set", Value: set}}, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Account{}, common.ErrPreconditionFailed
		}
		return models.Account{}, fmt.Errorf("db error: %w", err)
	}
	return before, nil
}

func (r *MongoRepository) SetPassword(ctx context.Context, key cryptox.LookupKey, envelope string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "encryptedPassword", Value: envelope},
		{Key: "updatedAt", Value: r.now().UTC()},
	}}}

	res, err := r.coll.UpdateOne(ctx, activeFilter(key), update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrPreconditionFailed
	}
	return nil
}

func (r *MongoRepository) SetStatus(ctx context.Context, id primitive.ObjectID, key cryptox.LookupKey, from, to models.AccountStatus) error {
	pair := bson.D{{Key: "_id", Value: id}, {Key: "lookupKey", Value: key.String()}}
	filter := append(bson.D{{Key: "status", Value: from}}, pair...)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: to},
		{Key: "updatedAt", Value: r.now().UTC()},
	}}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// tell a missing account apart from one whose status moved
	n, err := r.coll.CountDocuments(ctx, pair, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return common.ErrPreconditionFailed
}

func (r *MongoRepository) ListExcept(ctx context.Context, id primitive.ObjectID) ([]models.Account, error) {
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: id}}}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Account{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	var acc models.Account
	err := r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Account{}, common.ErrNotFound
		}
		return models.Account{}, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

func activeFilter(key cryptox.LookupKey) bson.D {
	return bson.D{
		{Key: "lookupKey", Value: key.String()},
		{Key: "status", Value: models.StatusActive},
	}
}
