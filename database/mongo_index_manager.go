package database

import (
	"context"
	"fmt"

	"github.com/go-errors/errors"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoIndexManager manages the reference indexes of MongoDB collections
type MongoIndexManager struct {
	connector *MongoConnector
}

func NewMongoIndexManager(connector *MongoConnector) *MongoIndexManager {
	return &MongoIndexManager{connector: connector}
}

// EnsureIndexes creates the reference indexes of a model collection
func (m *MongoIndexManager) EnsureIndexes(ctx context.Context, schema *Schema) error {
	indexes := ReferenceIndexes(schema)
	if len(indexes) == 0 {
		return nil
	}

	warnings, err := m.CompareIndexes(ctx, schema)
	if err != nil {
		log.Warnf("could not compare indexes for %s: %v", schema.Name, err)
	} else {
		for _, warning := range warnings {
			log.Infof("index warning for %s: [%s] %s", schema.Name, warning.Type, warning.Message)
		}
	}

	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, convertToMongoIndexModel(idx))
	}

	names, err := m.getCollection(schema).Indexes().CreateMany(ctx, models, options.CreateIndexes())
	if err != nil {
		return errors.Errorf("failed to create indexes for %s: %v", schema.Name, err)
	}

	log.Infof("ensured %d indexes for %s: %v", len(names), schema.Name, names)
	return nil
}

// CompareIndexes compares the reference indexes of the schema with the
// existing ones
func (m *MongoIndexManager) CompareIndexes(ctx context.Context, schema *Schema) ([]IndexWarning, error) {
	existing, err := m.existingIndexes(ctx, schema)
	if err != nil {
		return nil, err
	}

	var warnings []IndexWarning
	for _, idx := range ReferenceIndexes(schema) {
		dbIndex, exists := existing[idx.Name]
		if !exists {
			warnings = append(warnings, IndexWarning{
				Type:    IndexWarningMissingInDB,
				Message: fmt.Sprintf("Index '%s' is defined in the schema but does not exist in database", idx.Name),
				Details: map[string]any{"indexName": idx.Name},
			})
			continue
		}

		if unique, ok := dbIndex["unique"].(bool); ok && unique != idx.Unique {
			warnings = append(warnings, IndexWarning{
				Type:    IndexWarningDifferent,
				Message: fmt.Sprintf("Index '%s' differs: unique constraint differs", idx.Name),
				Details: map[string]any{"indexName": idx.Name, "existing": dbIndex},
			})
		}
	}

	return warnings, nil
}

func (m *MongoIndexManager) existingIndexes(ctx context.Context, schema *Schema) (map[string]bson.M, error) {
	cursor, err := m.getCollection(schema).Indexes().List(ctx)
	if err != nil {
		return nil, errors.Errorf("failed to list indexes: %v", err)
	}
	defer cursor.Close(ctx)

	existing := map[string]bson.M{}
	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			return nil, errors.Errorf("failed to decode index: %v", err)
		}

		if name, ok := index["name"].(string); ok {
			existing[name] = index
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, errors.Errorf("cursor error: %v", err)
	}

	return existing, nil
}

func (m *MongoIndexManager) getCollection(schema *Schema) *mongo.Collection {
	return m.connector.client.Database(m.connector.options.Database).Collection(schema.CollectionName)
}

func convertToMongoIndexModel(idx IndexDefinition) mongo.IndexModel {
	keys := bson.D{}
	for _, field := range idx.Fields {
		keys = append(keys, bson.E{Key: field.Name, Value: field.Order})
	}

	opts := options.Index().SetName(idx.Name)
	if idx.Unique {
		opts.SetUnique(true)
	}

	return mongo.IndexModel{
		Keys:    keys,
		Options: opts,
	}
}
