// Package repomanager provides RepositoryManager implementations for MongoDB
// and for process memory.
package repomanager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/accounts"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/resetcodes"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var ErrNotConnected = errors.New("store is not connected")

// dial is a seam for tests. It must return a client that answered a ping.
var dial = func(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// MongoManager owns one shared client, created on the first Connect.
type MongoManager struct {
	uri    string
	dbName string

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoManager(uri, dbName string) *MongoManager {
	return &MongoManager{uri: uri, dbName: dbName}
}

// Connect dials the store once. Concurrent callers wait for the same
// attempt; after a failure the next caller dials again.
func (m *MongoManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return nil
	}
	client, err := dial(ctx, m.uri)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	m.client = client
	m.db = client.Database(m.dbName)
	return nil
}

func (m *MongoManager) database() *mongo.Database {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

// EnsureIndexes creates the unique lookup key index on accounts and the
// lookup index on reset codes.
func (m *MongoManager) EnsureIndexes(ctx context.Context) error {
	db := m.database()
	if db == nil {
		return ErrNotConnected
	}

	_, err := db.Collection(common.AccountsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "lookupKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("lookupKey_unique"),
	})
	if err != nil {
		return fmt.Errorf("accounts index: %w", err)
	}

	_, err = db.Collection(common.ResetCodesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "lookupKey", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("lookupKey_createdAt"),
	})
	if err != nil {
		return fmt.Errorf("reset codes index: %w", err)
	}
	return nil
}

func (m *MongoManager) Accounts() accounts.Repository {
	return accounts.NewMongoRepository(m.database().Collection(common.AccountsCollection))
}

func (m *MongoManager) ResetCodes() resetcodes.Repository {
	return resetcodes.NewMongoRepository(m.database().Collection(common.ResetCodesCollection))
}

func (m *MongoManager) Ping(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if client == nil {
		return ErrNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the shared client. A later Connect dials again.
func (m *MongoManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client, m.db = nil, nil
	return err
}
