package dataaccess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xompass/vsaas-dal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var testModels = []database.ModelDefinition{
	{
		Name: "Parent",
		Fields: []database.FieldDefinition{
			{Name: "name", DataType: database.DtString},
			{Name: "tags", ReferencedModelName: "Tag", Cardinality: database.CardinalityArray},
			{Name: "owner", ReferencedModelName: "Person"},
		},
	},
	{
		Name: "Tag",
		Fields: []database.FieldDefinition{
			{Name: "value", DataType: database.DtInt},
			{Name: "status", DataType: database.DtString},
		},
	},
	{
		Name: "Person",
		Fields: []database.FieldDefinition{
			{Name: "name", DataType: database.DtString},
		},
	},
}

type fixture struct {
	engine    *Engine
	connector *database.MemoryConnector
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()

	connector := database.NewMemoryConnector("memory")
	ds, err := database.NewDatasource(connector)
	require.NoError(t, err)
	require.NoError(t, ds.RegisterModels(testModels...))

	return &fixture{
		engine:    NewEngine(ds, opts...),
		connector: connector,
	}
}

func (f *fixture) seed(t *testing.T, collection string, docs ...database.Record) {
	t.Helper()
	_, err := f.connector.MemoryCollection(collection).InsertMany(context.Background(), docs)
	require.NoError(t, err)
}

func (f *fixture) get(t *testing.T, collection string, id any) database.Record {
	t.Helper()
	doc, err := f.connector.MemoryCollection(collection).FindOne(context.Background(), bson.M{database.ID: id}, database.FindOptions{})
	require.NoError(t, err)
	return doc
}

// seedTags stores the parent {_id: 1, tags: [10, 20, 30]} and its tags.
func (f *fixture) seedTags(t *testing.T) {
	t.Helper()
	f.seed(t, "tag",
		database.Record{database.ID: 10, "value": 10, "status": "open"},
		database.Record{database.ID: 20, "value": 20, "status": "open"},
		database.Record{database.ID: 30, "value": 30, "status": "open"},
	)
	f.seed(t, "parent",
		database.Record{database.ID: 1, "name": "first", "tags": []any{10, 20, 30}, "owner": 5},
	)
	f.seed(t, "person",
		database.Record{database.ID: 5, "name": "owner"},
	)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) InsertOne(ctx context.Context, doc database.Record) (any, error) {
	args := m.Called(ctx, doc)
	return args.Get(0), args.Error(1)
}

func (m *mockStore) InsertMany(ctx context.Context, docs []database.Record) ([]any, error) {
	args := m.Called(ctx, docs)
	ids, _ := args.Get(0).([]any)
	return ids, args.Error(1)
}

func (m *mockStore) FindOne(ctx context.Context, filter bson.M, opts database.FindOptions) (database.Record, error) {
	args := m.Called(ctx, filter, opts)
	record, _ := args.Get(0).(database.Record)
	return record, args.Error(1)
}

func (m *mockStore) Find(ctx context.Context, filter bson.M, opts database.FindOptions) ([]database.Record, error) {
	args := m.Called(ctx, filter, opts)
	records, _ := args.Get(0).([]database.Record)
	return records, args.Error(1)
}

func (m *mockStore) UpdateMany(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	args := m.Called(ctx, filter, update)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Count(ctx context.Context, filter bson.M) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// mockConnector hands out the same mock store for every collection.
type mockConnector struct {
	store *mockStore
}

func (c *mockConnector) Ping() error                      { return nil }
func (c *mockConnector) Disconnect() error                { return nil }
func (c *mockConnector) GetName() string                  { return "mock" }
func (c *mockConnector) GetDatabaseName() string          { return "mock" }
func (c *mockConnector) Collection(string) database.Store { return c.store }

// newMockFixture registers the test models so that Tag lives in a mock store
// and the rest in memory.
func newMockFixture(t *testing.T) (*fixture, *mockStore) {
	t.Helper()

	store := &mockStore{}
	memory := database.NewMemoryConnector("memory")
	ds, err := database.NewDatasource(memory, &mockConnector{store: store})
	require.NoError(t, err)

	for _, def := range testModels {
		if def.Name == "Tag" {
			def.ConnectorName = "mock"
		}
		_, err := ds.RegisterModel(def)
		require.NoError(t, err)
	}
	require.NoError(t, ds.Validate())

	return &fixture{engine: NewEngine(ds), connector: memory}, store
}
