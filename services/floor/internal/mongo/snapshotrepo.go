package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type snapshotDocument struct {
	Key       string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SnapshotRepo keeps encoded floor snapshots, one document per key.
type SnapshotRepo struct {
	collection *mongo.Collection
}

func (r *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var doc snapshotDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load snapshot %s: %w", key, err)
	}
	return []byte(doc.Data), nil
}

func (r *SnapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	update := bson.M{
		"$set": bson.M{
			"data":       string(data),
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("cannot save snapshot %s: %w", key, err)
	}
	return nil
}
