package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const datasetsCollection = "datasets"

// MongoStore persists datasets in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a
// ping. The URI carries credentials and options (mongodb://host/...).
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(datasetsCollection),
	}, nil
}

// Put creates or replaces a dataset by ID.
func (m *MongoStore) Put(ctx context.Context, d Dataset) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d, opts); err != nil {
		return fmt.Errorf("put dataset %s: %w", d.ID, err)
	}
	return nil
}

// Get retrieves a dataset by ID.
func (m *MongoStore) Get(ctx context.Context, id string) (Dataset, error) {
	var d Dataset
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Dataset{}, ErrNotFound
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("get dataset %s: %w", id, err)
	}
	return d, nil
}

// List returns all datasets without documents, ordered by creation time.
func (m *MongoStore) List(ctx context.Context) ([]Dataset, error) {
	opts := options.Find().
		SetProjection(bson.M{"document": 0}).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer cur.Close(ctx)

	var out []Dataset
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode datasets: %w", err)
	}
	return out, nil
}

// Delete removes a dataset.
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects the client.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
