package database

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Store is the per-collection contract every backend implements. Filters and
// updates use the MongoDB dialect. Implementations return their native errors
// untouched.
type Store interface {
	// InsertOne inserts a document and returns its primary key.
	InsertOne(ctx context.Context, doc Record) (any, error)

	// InsertMany inserts the documents in order and returns their primary keys.
	InsertMany(ctx context.Context, docs []Record) ([]any, error)

	// FindOne returns the first matching document, or nil when none matches.
	FindOne(ctx context.Context, filter bson.M, opts FindOptions) (Record, error)

	// Find returns every matching document. The result is never nil.
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]Record, error)

	// UpdateMany applies update to every matching document and returns how
	// many matched.
	UpdateMany(ctx context.Context, filter bson.M, update bson.M) (int64, error)

	// DeleteMany removes every matching document and returns how many were
	// removed.
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)

	// Count returns the number of matching documents.
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// Connector is a handle to one database that hands out collection stores.
type Connector interface {
	Ping() error
	Disconnect() error
	GetName() string
	GetDatabaseName() string
	Collection(name string) Store
}
