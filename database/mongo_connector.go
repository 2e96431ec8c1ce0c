package database

import (
	"context"

	"github.com/go-errors/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

type MongoConnectorOpts struct {
	options.ClientOptions
	Name     string
	Database string
}

type MongoConnector struct {
	ctx          context.Context
	client       *mongo.Client
	options      *MongoConnectorOpts
	indexManager *MongoIndexManager
}

/**
 * NewMongoConnector creates a new MongoDB connector.
 * It initializes the MongoDB client with the provided options and checks the connection.
 */
func NewMongoConnector(opts *MongoConnectorOpts) (*MongoConnector, error) {
	if opts == nil {
		return nil, errors.New("mongo connector options are required")
	}

	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}

	connector := &MongoConnector{
		ctx:     context.Background(),
		options: opts,
	}

	if err := connector.connect(); err != nil {
		return nil, err
	}

	if err := connector.Ping(); err != nil {
		return nil, err
	}

	return connector, nil
}

// MongoConnectorOptsFromURI builds connector options from a connection
// string. The database falls back to the one in the URI, then to "test".
func MongoConnectorOptsFromURI(name, uri, database string) (*MongoConnectorOpts, error) {
	conn, err := connstring.Parse(uri)
	if err != nil {
		return nil, err
	}

	if database == "" {
		database = conn.Database
	}
	if database == "" {
		database = "test"
	}

	if name == "" {
		name = "mongodb"
	}

	// Nested documents decode as bson.M, like the records the stores exchange.
	clientOptions := options.Client().ApplyURI(uri).SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	return &MongoConnectorOpts{
		ClientOptions: *clientOptions,
		Name:          name,
		Database:      database,
	}, nil
}

/**
 * connect initializes the MongoDB client with the provided options.
 */
func (receiver *MongoConnector) connect() error {
	opts := receiver.options.ClientOptions

	client, err := mongo.Connect(&opts)
	if err != nil {
		return err
	}

	receiver.client = client
	receiver.indexManager = NewMongoIndexManager(receiver)
	return nil
}

/**
 * Ping checks the connection to the MongoDB server.
 */
func (receiver *MongoConnector) Ping() error {
	if receiver.client == nil {
		return errors.New("mongo client not initialized")
	}
	return receiver.client.Ping(receiver.ctx, nil)
}

/**
 * Disconnect closes the connection to the MongoDB server.
 */
func (receiver *MongoConnector) Disconnect() error {
	if receiver.client == nil {
		return errors.New("mongo client not initialized")
	}
	return receiver.client.Disconnect(receiver.ctx)
}

func (receiver *MongoConnector) GetName() string {
	return receiver.options.Name
}

func (receiver *MongoConnector) GetDatabaseName() string {
	return receiver.options.Database
}

// Collection returns the store of a collection in the connector database.
func (receiver *MongoConnector) Collection(name string) Store {
	return NewMongoStore(receiver.client.Database(receiver.options.Database).Collection(name))
}

func (receiver *MongoConnector) GetIndexManager() *MongoIndexManager {
	return receiver.indexManager
}
