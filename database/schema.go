package database

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	SCHEMA_MODEL_NAME_REQUIRED     = "SCHEMA_MODEL_NAME_REQUIRED"
	SCHEMA_FIELD_NAME_REQUIRED     = "SCHEMA_FIELD_NAME_REQUIRED"
	SCHEMA_DUPLICATED_FIELD        = "SCHEMA_DUPLICATED_FIELD"
	SCHEMA_REFERENCE_MODEL_MISSING = "SCHEMA_REFERENCE_MODEL_MISSING"
	SCHEMA_INVALID_CARDINALITY     = "SCHEMA_INVALID_CARDINALITY"
)

// Schema is the registration-time lookup table built from a ModelDefinition.
type Schema struct {
	Name           string
	CollectionName string
	IDType         string
	Fields         map[string]*FieldDefinition
	References     map[string]*FieldDefinition
}

func NewSchema(def ModelDefinition) (*Schema, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, errors.New(SCHEMA_MODEL_NAME_REQUIRED)
	}

	schema := &Schema{
		Name:           name,
		CollectionName: def.CollectionName,
		IDType:         def.IDType,
		Fields:         map[string]*FieldDefinition{},
		References:     map[string]*FieldDefinition{},
	}

	if schema.CollectionName == "" {
		schema.CollectionName = defaultCollectionName(name)
	}

	if schema.IDType == "" {
		schema.IDType = DtObjectID
	}

	for _, field := range def.Fields {
		field := field
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return nil, errors.Errorf("%s: model %s", SCHEMA_FIELD_NAME_REQUIRED, name)
		}

		if _, exists := schema.Fields[field.Name]; exists {
			return nil, errors.Errorf("%s: %s.%s", SCHEMA_DUPLICATED_FIELD, name, field.Name)
		}

		if field.IsReference || field.ReferencedModelName != "" {
			field.IsReference = true
			if strings.TrimSpace(field.ReferencedModelName) == "" {
				return nil, errors.Errorf("%s: %s.%s", SCHEMA_REFERENCE_MODEL_MISSING, name, field.Name)
			}

			switch field.Cardinality {
			case "":
				field.Cardinality = CardinalitySingle
			case CardinalitySingle, CardinalityArray:
			default:
				return nil, errors.Errorf("%s: %s.%s has cardinality %q", SCHEMA_INVALID_CARDINALITY, name, field.Name, field.Cardinality)
			}

			if field.DataType == "" {
				field.DataType = DtAny
			}

			schema.References[field.Name] = &field
		}

		if field.DataType == "" {
			field.DataType = DtAny
		}

		schema.Fields[field.Name] = &field
	}

	if _, ok := schema.Fields[ID]; !ok {
		schema.Fields[ID] = &FieldDefinition{Name: ID, DataType: schema.IDType}
	}

	return schema, nil
}

// Field returns the definition of a top level field, or of the top level
// field that owns a dotted path.
func (s *Schema) Field(name string) (*FieldDefinition, bool) {
	if s == nil {
		return nil, false
	}

	if field, ok := s.Fields[name]; ok {
		return field, true
	}

	if idx := strings.Index(name, "."); idx > 0 {
		field, ok := s.Fields[name[:idx]]
		return field, ok
	}

	return nil, false
}

func defaultCollectionName(modelName string) string {
	return strings.ToLower(modelName)
}

// DefinitionFromStruct builds a ModelDefinition from the bson tags of a
// struct. Reference fields are marked with a `ref:"Model"` tag; slice typed
// references get array cardinality. It is meant to be called once, when the
// model is registered.
func DefinitionFromStruct(name string, model any) (ModelDefinition, error) {
	def := ModelDefinition{Name: name}

	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return def, errors.Errorf("model %s must be a struct, got %T", name, model)
	}

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		bsonTags := parseFieldTags(sf, "bson")
		if bsonTags.Skip {
			continue
		}

		if bsonTags.Name == ID {
			def.IDType = dataTypeOf(sf.Type)
			continue
		}

		field := FieldDefinition{
			Name:     bsonTags.Name,
			DataType: dataTypeOf(sf.Type),
		}

		if ref := strings.TrimSpace(sf.Tag.Get("ref")); ref != "" {
			field.IsReference = true
			field.ReferencedModelName = ref
			field.Cardinality = CardinalitySingle
			if isList(sf.Type) {
				field.Cardinality = CardinalityArray
			}
		}

		def.Fields = append(def.Fields, field)
	}

	return def, nil
}

var (
	objectIDType = reflect.TypeOf(bson.ObjectID{})
	timeType     = reflect.TypeOf(time.Time{})
)

func dataTypeOf(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if isList(t) {
		return dataTypeOf(t.Elem())
	}

	switch {
	case t == objectIDType:
		return DtObjectID
	case t == timeType:
		return DtDate
	}

	switch t.Kind() { //nolint:exhaustive
	case reflect.String:
		return DtString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return DtInt
	case reflect.Float32, reflect.Float64:
		return DtFloat
	case reflect.Bool:
		return DtBool
	default:
		return DtAny
	}
}

// isList reports whether t holds many values. ObjectID is a byte array but
// counts as a scalar.
func isList(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == objectIDType {
		return false
	}
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

type FieldTags struct {
	Name      string
	OmitEmpty bool
	Inline    bool
	Skip      bool
}

func parseFieldTags(fieldStruct reflect.StructField, tagName string) FieldTags {
	key := strings.ToLower(fieldStruct.Name)
	tag, ok := fieldStruct.Tag.Lookup(tagName)

	if !ok && !strings.Contains(string(fieldStruct.Tag), ":") && len(fieldStruct.Tag) > 0 {
		tag = string(fieldStruct.Tag)
	}
	return parseXSONTags(key, tag)
}

func parseXSONTags(key string, tag string) FieldTags {
	var st FieldTags
	if tag == "-" {
		st.Skip = true
		return st
	}

	for idx, str := range strings.Split(tag, ",") {
		if idx == 0 && str != "" {
			key = str
		}
		switch str {
		case "omitempty":
			st.OmitEmpty = true
		case "inline":
			st.Inline = true
		}
	}

	st.Name = key

	return st
}
