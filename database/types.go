package database

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	ID = "_id"

	SET            = "$set"
	UNSET          = "$unset"
	PUSH           = "$push"
	PULL_ALL       = "$pullAll"
	INC            = "$inc"
	EACH           = "$each"
	IN             = "$in"
	AND            = "$and"
	OR             = "$or"
	COMMAND_PREFIX = "$"
)

// Record is a single document of any registered model.
type Record = bson.M

type Cardinality string

const (
	CardinalitySingle Cardinality = "single"
	CardinalityArray  Cardinality = "array"
)

const (
	DtObjectID = "ObjectID"
	DtDate     = "Date"
	DtString   = "string"
	DtInt      = "int"
	DtFloat    = "float"
	DtBool     = "bool"
	DtAny      = "any"
)

// FieldDefinition describes a single top level field of a model.
type FieldDefinition struct {
	Name                string      `json:"name" validate:"required"`
	DataType            string      `json:"type,omitempty"`
	IsReference         bool        `json:"isReference,omitempty"`
	ReferencedModelName string      `json:"model,omitempty" validate:"required_if=IsReference true"`
	Cardinality         Cardinality `json:"cardinality,omitempty" validate:"omitempty,oneof=single array"`
}

// ModelDefinition is what a caller registers for every model before any
// operation can resolve it. Reference fields must be declared here.
type ModelDefinition struct {
	Name           string            `json:"name" validate:"required"`
	CollectionName string            `json:"collection,omitempty"`
	ConnectorName  string            `json:"connector,omitempty"`
	IDType         string            `json:"idType,omitempty"`
	Fields         []FieldDefinition `json:"fields" validate:"dive"`
}

// FindOptions carries the query builder knobs the stores support.
type FindOptions struct {
	Limit      int64
	Projection map[string]bool
}
