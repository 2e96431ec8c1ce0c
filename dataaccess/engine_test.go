package dataaccess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xompass/vsaas-dal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestCreateAndFindRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	values := database.Record{"value": 42, "status": "open"}
	created, err := f.engine.Create(ctx, "Tag", values)
	require.NoError(t, err)

	id, ok := created[database.ID].(bson.ObjectID)
	require.True(t, ok)
	assert.False(t, id.IsZero())

	found, err := f.engine.Find(ctx, "Tag", ByID{ID: id}, Options{})
	require.NoError(t, err)
	require.NotNil(t, found.Record)
	assert.Equal(t, 42, found.Record["value"])
	assert.Equal(t, "open", found.Record["status"])

	// The caller's values are not modified.
	assert.NotContains(t, values, database.ID)
}

func TestCreateMany(t *testing.T) {
	f := newFixture(t)

	created, err := f.engine.CreateMany(context.Background(), "Tag", []database.Record{
		{"value": 1},
		{"value": 2},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotNil(t, created[0][database.ID])
	assert.NotNil(t, created[1][database.ID])
	assert.Equal(t, 2, f.connector.MemoryCollection("tag").Len())
}

func TestCreateReturnsStoreErrorsUnchanged(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)

	_, err := f.engine.Create(context.Background(), "Tag", database.Record{database.ID: 10})
	require.Error(t, err)
	assert.True(t, mongo.IsDuplicateKeyError(err))
}

func TestFindByIDAndFindOneAreEquivalent(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	byID, err := f.engine.Find(ctx, "Tag", ByID{ID: 20}, Options{})
	require.NoError(t, err)

	findOne, err := f.engine.Find(ctx, "Tag", ByFilter{Where: Where{database.ID: 20}}, Options{FindOne: true})
	require.NoError(t, err)

	assert.True(t, byID.Single)
	assert.Equal(t, byID, findOne)
}

func TestFindMissingRecordIsNotAnError(t *testing.T) {
	f := newFixture(t)

	result, err := f.engine.Find(context.Background(), "Tag", ByID{ID: 404}, Options{})
	require.NoError(t, err)
	assert.Nil(t, result.Value())
}

func TestFindFilter(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	result, err := f.engine.Find(ctx, "Tag", ByFilter{Where: Where{"value": Where{"gte": 20}}}, Options{})
	require.NoError(t, err)
	assert.False(t, result.Single)
	assert.Equal(t, []any{20, 30}, result.IDs())

	result, err = f.engine.Find(ctx, "Tag", ByFilter{Where: Where{"value": 99}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []database.Record{}, result.Value())

	result, err = f.engine.Find(ctx, "Tag", ByFilter{}, Options{DefaultLimit: 2})
	require.NoError(t, err)
	assert.Equal(t, []any{10, 20}, result.IDs())

	result, err = f.engine.Find(ctx, "Tag", ByID{ID: 10}, Options{Fields: map[string]bool{"value": true}})
	require.NoError(t, err)
	assert.Equal(t, database.Record{database.ID: 10, "value": 10}, result.Record)
}

func TestEngineDefaultLimit(t *testing.T) {
	f := newFixture(t, WithDefaultLimit(1))
	f.seedTags(t)
	ctx := context.Background()

	result, err := f.engine.Find(ctx, "Tag", ByFilter{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{10}, result.IDs())

	result, err = f.engine.Find(ctx, "Tag", ByFilter{}, Options{DefaultLimit: 3})
	require.NoError(t, err)
	assert.Len(t, result.Records, 3)

	count, err := f.engine.Count(ctx, "Tag", ByFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUpdateReturnsTheRecordsMatchedBeforeTheUpdate(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	result, err := f.engine.Update(ctx, "Tag", ByFilter{Where: Where{"status": "open"}}, database.Record{"status": "closed"}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	assert.Equal(t, []any{10, 20, 30}, result.IDs())
	for _, record := range result.Records {
		assert.Equal(t, "closed", record["status"])
	}

	open, err := f.engine.Find(ctx, "Tag", ByFilter{Where: Where{"status": "open"}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, open.Records)
}

func TestUpdateWithPrimaryKeyExcluded(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	result, err := f.engine.Update(ctx, "Tag", ByFilter{Where: Where{"status": "open"}}, database.Record{"status": "x"}, Options{Fields: map[string]bool{database.ID: false}})
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	for i, record := range result.Records {
		assert.NotContains(t, record, database.ID)
		assert.Equal(t, "x", record["status"])
		assert.EqualValues(t, (i+1)*10, record["value"])
	}

	result, err = f.engine.Update(ctx, "Tag", ByFilter{Where: Where{"status": "x"}}, database.Record{"status": "y"}, Options{Fields: map[string]bool{database.ID: false, "status": true}})
	require.NoError(t, err)
	assert.Equal(t, []database.Record{{"status": "y"}, {"status": "y"}, {"status": "y"}}, result.Records)
}

func TestUpdateRespectsDefaultLimit(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	result, err := f.engine.Update(ctx, "Tag", ByFilter{Where: Where{"status": "open"}}, database.Record{"status": "closed"}, Options{DefaultLimit: 2})
	require.NoError(t, err)
	assert.Equal(t, []any{10, 20}, result.IDs())

	assert.Equal(t, "open", f.get(t, "tag", 30)["status"])
}

func TestUpdateByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.engine.Create(ctx, "Person", database.Record{"name": "before"})
	require.NoError(t, err)
	id := created[database.ID].(bson.ObjectID)

	result, err := f.engine.Update(ctx, "Person", ByID{ID: id.Hex()}, database.Record{"name": "after"}, Options{})
	require.NoError(t, err)
	require.True(t, result.Single)
	require.NotNil(t, result.Record)
	assert.Equal(t, id, result.Record[database.ID])
	assert.Equal(t, "after", result.Record["name"])

	missing, err := f.engine.Update(ctx, "Person", ByID{ID: bson.NewObjectID()}, database.Record{"name": "x"}, Options{})
	require.NoError(t, err)
	assert.Nil(t, missing.Value())
}

func TestUpdateFindOneUpdatesASingleRecord(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)

	result, err := f.engine.Update(context.Background(), "Tag", ByFilter{Where: Where{"status": "open"}}, database.Record{"$inc": bson.M{"value": 1}}, Options{FindOne: true})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Equal(t, 10, result.Record[database.ID])
	assert.EqualValues(t, 11, result.Record["value"])
	assert.EqualValues(t, 20, f.get(t, "tag", 20)["value"])
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	_, err := f.engine.Update(ctx, "Tag", ByID{ID: 10}, database.Record{"status": "x", "$set": bson.M{"value": 1}}, Options{})
	assert.ErrorIs(t, err, ErrInvalidUpdate)
	assert.Contains(t, err.Error(), MIXED_UPDATE)

	_, err = f.engine.Update(ctx, "Tag", ByID{ID: 10}, database.Record{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EMPTY_UPDATE)

	_, err = f.engine.Update(ctx, "Tag", ByID{ID: 10}, database.Record{database.ID: 11}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EMPTY_UPDATE)
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	filter := ByFilter{Where: Where{"value": Where{"lt": 30}}}
	result, err := f.engine.Destroy(ctx, "Tag", filter, Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "open", result.Records[0]["status"])
	assert.Equal(t, []any{10, 20}, result.IDs())

	after, err := f.engine.Find(ctx, "Tag", filter, Options{})
	require.NoError(t, err)
	assert.Empty(t, after.Records)
	assert.Equal(t, 1, f.connector.MemoryCollection("tag").Len())

	single, err := f.engine.Destroy(ctx, "Tag", ByID{ID: 30}, Options{Fields: map[string]bool{database.ID: false}})
	require.NoError(t, err)
	assert.Equal(t, 30, single.Record[database.ID])
	assert.Zero(t, f.connector.MemoryCollection("tag").Len())

	none, err := f.engine.Destroy(ctx, "Tag", ByID{ID: 30}, Options{})
	require.NoError(t, err)
	assert.Nil(t, none.Value())
}

func TestInvalidWhere(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Find(context.Background(), "Tag", ByFilter{Where: Where{"$where": "sleep(100)"}}, Options{})
	assert.ErrorIs(t, err, database.ErrInvalidWhere)
}

func TestExists(t *testing.T) {
	f := newFixture(t)
	f.seedTags(t)
	ctx := context.Background()

	exists, err := f.engine.Exists(ctx, "Tag", 10)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.engine.Exists(ctx, "Tag", 11)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUnknownModelFailsWithoutStoreAccess(t *testing.T) {
	f, store := newMockFixture(t)
	ctx := context.Background()
	engine := f.engine

	_, err := engine.Create(ctx, "Missing", database.Record{"a": 1})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.CreateMany(ctx, "Missing", []database.Record{{"a": 1}})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.Find(ctx, "Missing", ByID{ID: 1}, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.Update(ctx, "Missing", ByFilter{}, database.Record{"a": 1}, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.Destroy(ctx, "Missing", ByFilter{}, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.Count(ctx, "Missing", nil)
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.CreateAssociation(ctx, "Missing", 1, "tags", database.Record{}, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.FindAssociation(ctx, "Missing", 1, "tags", nil, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.UpdateAssociation(ctx, "Missing", 1, "tags", nil, database.Record{"a": 1}, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = engine.DestroyAssociation(ctx, "Missing", 1, "tags", nil, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)

	store.AssertExpectations(t)
	assert.Empty(t, store.Calls)
	assert.Zero(t, f.connector.MemoryCollection("parent").Len())
}

func TestNilResolver(t *testing.T) {
	_, err := NewEngine(nil).Find(context.Background(), "Tag", nil, Options{})
	assert.ErrorIs(t, err, ErrModelNotFound)
}
