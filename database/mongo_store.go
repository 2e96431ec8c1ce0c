package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore implements Store over a MongoDB collection. Driver errors are
// returned as they come.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

func (store *MongoStore) InsertOne(ctx context.Context, doc Record) (any, error) {
	result, err := store.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}

	return result.InsertedID, nil
}

func (store *MongoStore) InsertMany(ctx context.Context, docs []Record) ([]any, error) {
	if len(docs) == 0 {
		return []any{}, nil
	}

	result, err := store.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}

	return result.InsertedIDs, nil
}

func (store *MongoStore) FindOne(ctx context.Context, filter bson.M, opts FindOptions) (Record, error) {
	findOneOptions := options.FindOne()
	if len(opts.Projection) > 0 {
		findOneOptions.SetProjection(opts.Projection)
	}

	result := store.collection.FindOne(ctx, filter, findOneOptions)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	var receiver Record
	if err := result.Decode(&receiver); err != nil {
		return nil, err
	}

	return receiver, nil
}

func (store *MongoStore) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]Record, error) {
	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Projection) > 0 {
		findOpts.SetProjection(opts.Projection)
	}

	cursor, err := store.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}

	var receiver []Record
	if err = cursor.All(ctx, &receiver); err != nil {
		return nil, err
	}

	if receiver == nil {
		return []Record{}, nil
	}
	return receiver, nil
}

func (store *MongoStore) UpdateMany(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	result, err := store.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}

	return result.MatchedCount, nil
}

func (store *MongoStore) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	result, err := store.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (store *MongoStore) Count(ctx context.Context, filter bson.M) (int64, error) {
	return store.collection.CountDocuments(ctx, filter)
}
