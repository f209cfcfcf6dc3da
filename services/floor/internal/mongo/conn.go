package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultURL        = "mongodb://localhost:27017"
	defaultDatabase   = "appetite_floor"
	defaultCollection = "floor_snapshots"

	connectTimeout = 10 * time.Second
)

// Conn owns the MongoDB client behind the snapshot slot. Start connects,
// pings the server and ensures the snapshot collection is indexed by
// updated_at.
type Conn struct {
	client     *mongo.Client
	snapshots  *mongo.Collection
	logger     apt.Logger
	url        string
	database   string
	collection string
}

func NewConn(config *apt.Config, logger apt.Logger) *Conn {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Conn{
		logger:     logger,
		url:        config.GetStringOrDef("db.mongo.url", defaultURL),
		database:   config.GetStringOrDef("db.mongo.name", defaultDatabase),
		collection: config.GetStringOrDef("db.mongo.collection", defaultCollection),
	}
}

func (c *Conn) Start(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(c.url).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	coll := client.Database(c.database).Collection(c.collection)
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("updated_at_desc"),
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("cannot index %s: %w", c.collection, err)
	}

	c.client = client
	c.snapshots = coll

	c.logger.Info("Snapshot store ready", "database", c.database, "collection", c.collection)
	return nil
}

func (c *Conn) Stop(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
	}
	c.client = nil
	c.snapshots = nil
	c.logger.Info("Snapshot store closed", "database", c.database)
	return nil
}

// Snapshots returns the repo over the started connection's collection.
func (c *Conn) Snapshots() (*SnapshotRepo, error) {
	if c.snapshots == nil {
		return nil, errors.New("mongo snapshot store is not started")
	}
	return &SnapshotRepo{collection: c.snapshots}, nil
}
