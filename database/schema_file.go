package database

import (
	"context"
	"os"

	"github.com/bytedance/sonic"
	"github.com/go-errors/errors"
	"github.com/go-playground/validator/v10"
)

var definitionValidator = validator.New()

// ParseSchema decodes a JSON array of model definitions.
//
//	[{"name": "Parent", "fields": [{"name": "tags", "model": "Tag", "cardinality": "array"}]}]
func ParseSchema(data []byte) ([]ModelDefinition, error) {
	var defs []ModelDefinition
	if err := sonic.Unmarshal(data, &defs); err != nil {
		return nil, errors.Errorf("invalid schema document: %v", err)
	}

	for idx := range defs {
		if err := definitionValidator.Struct(defs[idx]); err != nil {
			return nil, errors.Errorf("invalid model definition #%d (%s): %v", idx, defs[idx].Name, err)
		}
	}

	return defs, nil
}

func LoadSchemaFile(path string) ([]ModelDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("cannot read schema file %s: %v", path, err)
	}

	return ParseSchema(data)
}

/**
 * EnsureIndexes creates the reference indexes of every registered model
 * whose connector supports them.
 */
func (receiver *Datasource) EnsureIndexes(ctx context.Context) error {
	for _, handle := range receiver.Models() {
		mongoConnector, ok := handle.connector.(*MongoConnector)
		if !ok {
			continue
		}

		indexManager := mongoConnector.GetIndexManager()
		if indexManager == nil {
			continue
		}

		if err := indexManager.EnsureIndexes(ctx, handle.schema); err != nil {
			return errors.Errorf("failed to ensure indexes for model %s: %v", handle.Name(), err)
		}
	}

	return nil
}
