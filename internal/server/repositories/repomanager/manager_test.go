package repomanager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/accounts"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/resetcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	_ RepositoryManager = (*MongoManager)(nil)
	_ RepositoryManager = (*MemoryManager)(nil)
)

// stubDial replaces dial for the duration of the test. The client it hands
// out is never used for I/O.
func stubDial(t *testing.T, fn func(ctx context.Context, uri string) (*mongo.Client, error)) {
	t.Helper()
	orig := dial
	dial = fn
	t.Cleanup(func() { dial = orig })
}

func offlineClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	return client
}

func TestMongoManager_ConnectRetriesAfterFailure(t *testing.T) {
	var calls atomic.Int32
	stubDial(t, func(ctx context.Context, uri string) (*mongo.Client, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("boom")
		}
		assert.Equal(t, "mongodb://db:27017", uri)
		return offlineClient(t), nil
	})

	m := NewMongoManager("mongodb://db:27017", "admin")
	ctx := context.Background()

	err := m.Connect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.ErrorIs(t, m.Ping(ctx), ErrNotConnected)
	assert.ErrorIs(t, m.EnsureIndexes(ctx), ErrNotConnected)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Connect(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())

	var _ accounts.Repository = m.Accounts()
	var _ resetcodes.Repository = m.ResetCodes()

	require.NoError(t, m.Close(ctx))
	require.NoError(t, m.Close(ctx))
}

func TestMemoryManager(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	require.NoError(t, m.EnsureIndexes(ctx))
	require.NoError(t, m.Ping(ctx))
	assert.Same(t, m.Accounts(), m.Accounts())
	assert.Same(t, m.ResetCodes(), m.ResetCodes())
	require.NoError(t, m.Close(ctx))
}
