package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	_, err := store.InsertMany(context.Background(), []Record{
		{ID: 1, "name": "alpha", "value": 10, "tags": []any{"a", "b"}, "meta": bson.M{"size": 3}},
		{ID: 2, "name": "beta", "value": 20, "tags": []any{"b"}},
		{ID: 3, "name": "gamma", "value": 30},
	})
	require.NoError(t, err)
	return store
}

func ids(records []Record) []any {
	result := make([]any, 0, len(records))
	for _, record := range records {
		result = append(result, record[ID])
	}
	return result
}

func TestMemoryStoreInsert(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.InsertOne(ctx, Record{"name": "generated"})
	require.NoError(t, err)
	assert.IsType(t, bson.ObjectID{}, id)

	_, err = store.InsertOne(ctx, Record{ID: id})
	assert.True(t, mongo.IsDuplicateKeyError(err))

	_, err = store.InsertMany(ctx, []Record{{ID: 5}, {ID: 5}})
	assert.True(t, mongo.IsDuplicateKeyError(err))
	assert.Equal(t, 1, store.Len())

	doc := Record{ID: 6, "list": []any{1}}
	_, err = store.InsertOne(ctx, doc)
	require.NoError(t, err)
	doc["list"].([]any)[0] = 99

	stored, err := store.FindOne(ctx, bson.M{ID: 6}, FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []any{1}, stored["list"])
}

func TestMemoryStoreFind(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter bson.M
		want   []any
	}{
		{"all", bson.M{}, []any{1, 2, 3}},
		{"equality across numeric types", bson.M{"value": int64(20)}, []any{2}},
		{"array contains", bson.M{"tags": "b"}, []any{1, 2}},
		{"in", bson.M{ID: bson.M{"$in": []any{3, 1}}}, []any{1, 3}},
		{"nin", bson.M{ID: bson.M{"$nin": bson.A{3, 1}}}, []any{2}},
		{"range", bson.M{"value": bson.M{"$gt": 10, "$lte": 30}}, []any{2, 3}},
		{"ne", bson.M{"name": bson.M{"$ne": "beta"}}, []any{1, 3}},
		{"exists", bson.M{"tags": bson.M{"$exists": false}}, []any{3}},
		{"regex", bson.M{"name": bson.M{"$regex": "^A", "$options": "i"}}, []any{1}},
		{"not regex", bson.M{"name": bson.M{"$not": bson.M{"$regex": "a$"}}}, []any{}},
		{"dotted path", bson.M{"meta.size": 3}, []any{1}},
		{"or", bson.M{OR: bson.A{bson.M{ID: 1}, bson.M{"name": "gamma"}}}, []any{1, 3}},
		{"and", bson.M{AND: bson.A{bson.M{"tags": "b"}, bson.M{"value": bson.M{"$gte": 20}}}}, []any{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.Find(ctx, tt.filter, FindOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(records))
		})
	}

	_, err := store.Find(ctx, bson.M{"$where": "1"}, FindOptions{})
	assert.Error(t, err)
}

func TestMemoryStoreFindOptions(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	records, err := store.Find(ctx, bson.M{}, FindOptions{Limit: 2, Projection: map[string]bool{"name": true}})
	require.NoError(t, err)
	assert.Equal(t, []Record{{ID: 1, "name": "alpha"}, {ID: 2, "name": "beta"}}, records)

	record, err := store.FindOne(ctx, bson.M{ID: 3}, FindOptions{Projection: map[string]bool{"value": false}})
	require.NoError(t, err)
	assert.Equal(t, Record{ID: 3, "name": "gamma"}, record)

	record, err = store.FindOne(ctx, bson.M{ID: 9}, FindOptions{})
	require.NoError(t, err)
	assert.Nil(t, record)

	count, err := store.Count(ctx, bson.M{"value": bson.M{"$gte": 20}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestMemoryStoreUpdate(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	matched, err := store.UpdateMany(ctx, bson.M{"tags": "b"}, bson.M{
		SET:  bson.M{"status": "x", "meta.size": 4},
		INC:  bson.M{"value": 1},
		PUSH: bson.M{"tags": "c"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, matched)

	record, _ := store.FindOne(ctx, bson.M{ID: 1}, FindOptions{})
	assert.Equal(t, "x", record["status"])
	assert.EqualValues(t, 11, record["value"])
	assert.Equal(t, []any{"a", "b", "c"}, record["tags"])
	assert.Equal(t, 4, record["meta"].(bson.M)["size"])

	_, err = store.UpdateMany(ctx, bson.M{ID: 3}, bson.M{PUSH: bson.M{"tags": bson.M{EACH: []any{"x", "y"}}}, UNSET: bson.M{"name": ""}})
	require.NoError(t, err)
	record, _ = store.FindOne(ctx, bson.M{ID: 3}, FindOptions{})
	assert.Equal(t, []any{"x", "y"}, record["tags"])
	assert.NotContains(t, record, "name")

	_, err = store.UpdateMany(ctx, bson.M{}, bson.M{PULL_ALL: bson.M{"tags": []any{"b", "x"}}})
	require.NoError(t, err)
	records, _ := store.Find(ctx, bson.M{}, FindOptions{})
	assert.Equal(t, []any{"a", "c"}, records[0]["tags"])
	assert.Equal(t, []any{"c"}, records[1]["tags"])
	assert.Equal(t, []any{"y"}, records[2]["tags"])

	matched, err = store.UpdateMany(ctx, bson.M{ID: 9}, bson.M{SET: bson.M{"a": 1}})
	require.NoError(t, err)
	assert.Zero(t, matched)

	_, err = store.UpdateMany(ctx, bson.M{ID: 1}, bson.M{PUSH: bson.M{"name": "x"}})
	assert.Error(t, err)
	_, err = store.UpdateMany(ctx, bson.M{}, bson.M{})
	assert.Error(t, err)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	deleted, err := store.DeleteMany(ctx, bson.M{ID: bson.M{"$in": []any{1, 3}}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.Equal(t, 1, store.Len())

	records, _ := store.Find(ctx, bson.M{}, FindOptions{})
	assert.Equal(t, []any{2}, ids(records))
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	store := seededStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Find(ctx, bson.M{}, FindOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.InsertOne(ctx, Record{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.UpdateMany(ctx, bson.M{}, bson.M{SET: bson.M{"a": 1}})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.DeleteMany(ctx, bson.M{})
	assert.ErrorIs(t, err, context.Canceled)
}
