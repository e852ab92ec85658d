package resetcodes

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	key := cryptox.Digest("a@b.com")
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.LatestUnused(ctx, key)
	assert.ErrorIs(t, err, common.ErrNotFound)

	older := models.ResetCode{LookupKey: key.String(), CreatedAt: base}
	newer := models.ResetCode{LookupKey: key.String(), CreatedAt: base.Add(time.Minute)}
	other := models.ResetCode{LookupKey: cryptox.Digest("x@y.com").String(), CreatedAt: base.Add(time.Hour)}
	for _, c := range []*models.ResetCode{&older, &newer, &other} {
		require.NoError(t, repo.Insert(ctx, c))
	}

	got, err := repo.LatestUnused(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	n, err := repo.ReserveAttempt(ctx, newer.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.ReserveAttempt(ctx, newer.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = repo.ReserveAttempt(ctx, newer.ID, 2)
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)

	require.NoError(t, repo.MarkUsed(ctx, newer.ID))
	assert.ErrorIs(t, repo.MarkUsed(ctx, newer.ID), common.ErrNotFound)

	got, err = repo.LatestUnused(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = repo.ReserveAttempt(ctx, newer.ID, 10)
	assert.ErrorIs(t, err, common.ErrTooManyAttempts, "used codes take no attempts")
	_, err = repo.ReserveAttempt(ctx, primitive.NewObjectID(), 10)
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)
}

func TestMemoryRepository_ReserveAttemptIsCapped(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	code := models.ResetCode{LookupKey: cryptox.Digest("a@b.com").String()}
	require.NoError(t, repo.Insert(ctx, &code))

	const max = 5
	var (
		wg       sync.WaitGroup
		reserved atomic.Int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ReserveAttempt(ctx, code.ID, max); err == nil {
				reserved.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(max), reserved.Load())
	got, err := repo.LatestUnused(ctx, cryptox.Digest("a@b.com"))
	require.NoError(t, err)
	assert.Equal(t, max, got.Attempts)
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	key := cryptox.Digest("a@b.com")

	mt.Run("latest unused", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		id := primitive.NewObjectID()
		doc := bson.D{
			{Key: "_id", Value: id},
			{Key: "lookupKey", Value: key.String()},
			{Key: "codeHash", Value: []byte("hash")},
			{Key: "used", Value: false},
			{Key: "attempts", Value: 2},
		}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, doc))

		got, err := repo.LatestUnused(ctx, key)
		require.NoError(mt, err)
		assert.Equal(mt, id, got.ID)
		assert.Equal(mt, 2, got.Attempts)
		assert.Equal(mt, []byte("hash"), got.CodeHash)

		sort := mt.GetStartedEvent().Command.Lookup("sort").Document()
		assert.Equal(mt, int32(-1), sort.Lookup("createdAt").Int32())
	})

	mt.Run("reserve attempt", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "attempts", Value: 3},
		}}))

		n, err := repo.ReserveAttempt(ctx, id, 5)
		require.NoError(mt, err)
		assert.Equal(mt, 3, n)

		query := mt.GetStartedEvent().Command.Lookup("query").Document()
		assert.False(mt, query.Lookup("used").Boolean())
		assert.Equal(mt, int32(5), query.Lookup("attempts", "$lt").Int32())
	})

	mt.Run("reserve attempt exhausted", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.ReserveAttempt(ctx, primitive.NewObjectID(), 5)
		assert.ErrorIs(mt, err, common.ErrTooManyAttempts)
	})

	mt.Run("mark used twice", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		assert.ErrorIs(mt, repo.MarkUsed(ctx, primitive.NewObjectID()), common.ErrNotFound)
	})

	mt.Run("insert", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		code := models.ResetCode{LookupKey: key.String()}
		require.NoError(mt, repo.Insert(ctx, &code))
		assert.False(mt, code.ID.IsZero())
	})
}
