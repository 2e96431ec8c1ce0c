package database

import "sort"

// IndexField represents a field in an index
type IndexField struct {
	Name  string // Field name
	Order int    // 1 for ascending, -1 for descending
}

// IndexDefinition is a generic, database-agnostic representation of an index
type IndexDefinition struct {
	Name   string       // Index name
	Fields []IndexField // Fields that compose the index
	Unique bool         // Whether the index is unique
}

// IndexWarning represents a discrepancy between defined and actual indexes
type IndexWarning struct {
	Type    IndexWarningType
	Message string
	Details map[string]any
}

type IndexWarningType string

const (
	IndexWarningMissingInDB IndexWarningType = "missing_in_db" // Index defined in the schema but not in DB
	IndexWarningDifferent   IndexWarningType = "different"     // Index exists in both but with different options
)

// ReferenceIndexes returns one ascending index per reference field of the
// schema. Association lookups filter children by these fields.
func ReferenceIndexes(schema *Schema) []IndexDefinition {
	if schema == nil {
		return nil
	}

	indexes := make([]IndexDefinition, 0, len(schema.References))
	for _, name := range sortedKeys(schema.References) {
		indexes = append(indexes, IndexDefinition{
			Name:   name + "_1",
			Fields: []IndexField{{Name: name, Order: 1}},
		})
	}

	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	return indexes
}
