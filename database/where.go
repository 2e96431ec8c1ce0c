package database

import (
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/simplereach/timeutils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Operators maps the loopback where operators to their MongoDB names. The
// MongoDB names are accepted as well, for in-process callers.
var Operators = map[string]string{
	"eq":     "$eq",
	"neq":    "$ne",
	"gt":     "$gt",
	"gte":    "$gte",
	"lt":     "$lt",
	"lte":    "$lte",
	"inq":    "$in",
	"nin":    "$nin",
	"exists": "$exists",
}

var logicalOperators = map[string]string{
	"and":  AND,
	"or":   OR,
	AND:    AND,
	OR:     OR,
	"$nor": "$nor",
}

func init() {
	for _, mongoOp := range []string{"$eq", "$ne", "$gt", "$gte", "$lt", "$lte", "$in", "$nin", "$exists", "$regex", "$options", "$not"} {
		Operators[mongoOp] = mongoOp
	}
}

// ErrInvalidWhere is wrapped by every error TranslateWhere returns.
var ErrInvalidWhere = errors.New("invalid where")

// TranslateWhere turns a where object into a MongoDB filter. Values of
// ObjectID and Date fields are coerced using the schema; fields the schema
// does not declare are passed through as they are.
func TranslateWhere(where map[string]any, schema *Schema) (bson.M, error) {
	query, err := translateWhere(where, schema)
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrInvalidWhere, err)
	}
	return query, nil
}

func translateWhere(where map[string]any, schema *Schema) (bson.M, error) {
	if where == nil {
		return bson.M{}, nil
	}

	query := bson.M{}
	for key, val := range where {
		if key == "$where" {
			return nil, errors.New("invalid where parameter. $where is not allowed")
		}

		if logical, ok := logicalOperators[key]; ok {
			clauses, ok := toList(val)
			if !ok {
				return nil, errors.Errorf("invalid where parameter. %s expects an array", key)
			}

			translated := bson.A{}
			for _, clause := range clauses {
				clauseMap, ok := asMap(clause)
				if !ok {
					return nil, errors.Errorf("invalid where parameter. %s expects an array of objects", key)
				}

				sub, err := translateWhere(clauseMap, schema)
				if err != nil {
					return nil, err
				}
				if len(sub) > 0 {
					translated = append(translated, sub)
				}
			}

			if len(translated) == 0 {
				return nil, errors.New("invalid and/or condition")
			}

			query[logical] = translated
			continue
		}

		if strings.HasPrefix(key, COMMAND_PREFIX) {
			return nil, errors.Errorf("invalid use of operator or field: %s", key)
		}

		fieldName := resolveFieldName(key, schema)
		field, _ := schema.Field(fieldName)

		cond, isCondition := conditionMap(val)
		if !isCondition {
			query[fieldName] = coerceValue(val, field, false)
			continue
		}

		translated, err := buildCondition(cond, field)
		if err != nil {
			return nil, errors.Errorf("invalid where parameter for %s: %v", key, err)
		}
		query[fieldName] = translated
	}

	return query, nil
}

func buildCondition(cond map[string]any, field *FieldDefinition) (bson.M, error) {
	query := bson.M{}

	like, hasLike := cond["like"]
	nlike, hasNLike := cond["nlike"]
	opts := cond["options"]

	switch {
	case hasLike:
		query["$regex"] = like
		if opts != nil {
			query["$options"] = opts
		}
		return query, nil
	case hasNLike:
		regex := bson.M{"$regex": nlike}
		if opts != nil {
			regex["$options"] = opts
		}
		query["$not"] = regex
		return query, nil
	}

	for op, arg := range cond {
		mongoOp, ok := Operators[op]
		if !ok {
			return nil, errors.Errorf("unknown operator %s", op)
		}

		switch mongoOp {
		case "$exists":
			if _, ok := arg.(bool); !ok {
				return nil, errors.New("exists must be boolean")
			}
			query[mongoOp] = arg
		case "$in", "$nin":
			if _, ok := toList(arg); !ok {
				return nil, errors.Errorf("%s expects an array", op)
			}
			query[mongoOp] = coerceValue(arg, field, true)
		case "$not":
			sub, ok := conditionMap(arg)
			if !ok {
				return nil, errors.New("$not expects an operator object")
			}
			translated, err := buildCondition(sub, field)
			if err != nil {
				return nil, err
			}
			query[mongoOp] = translated
		default:
			query[mongoOp] = coerceValue(arg, field, false)
		}
	}

	return query, nil
}

// conditionMap reports whether v is an operator object such as {"gt": 1}.
func conditionMap(v any) (map[string]any, bool) {
	m, ok := asMap(v)
	if !ok || len(m) == 0 {
		return nil, false
	}

	for key := range m {
		if _, isOp := Operators[key]; isOp {
			continue
		}
		switch key {
		case "like", "nlike", "options":
			continue
		}
		return nil, false
	}
	return m, true
}

func resolveFieldName(key string, schema *Schema) string {
	if key == "id" {
		if _, declared := schema.Field("id"); !declared {
			return ID
		}
	}
	return key
}

func coerceValue(val any, field *FieldDefinition, list bool) any {
	if field == nil {
		return val
	}

	if list {
		items, ok := toList(val)
		if !ok {
			return val
		}
		coerced := make([]any, len(items))
		for i, item := range items {
			coerced[i] = coerceValue(item, field, false)
		}
		return coerced
	}

	switch field.DataType {
	case DtObjectID:
		if oid, err := getObjectId(val); err == nil {
			return oid
		}
	case DtDate:
		if _, isList := toList(val); !isList {
			if date, err := getDate(val); err == nil {
				return date
			}
		}
	}

	return val
}

func getObjectId(val any) (bson.ObjectID, error) {
	switch v := val.(type) {
	case string:
		return bson.ObjectIDFromHex(v)
	case *string:
		if v == nil {
			return bson.ObjectID{}, errors.New("invalid ObjectID")
		}
		return bson.ObjectIDFromHex(*v)
	case bson.ObjectID:
		return v, nil
	case *bson.ObjectID:
		if v == nil {
			return bson.ObjectID{}, errors.New("invalid ObjectID")
		}
		return *v, nil
	default:
		return bson.ObjectID{}, errors.New("invalid ObjectID")
	}
}

// getDate returns a time.Time value from the given value.
func getDate(val any) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, errors.New("invalid date")
		}
		return *v, nil
	case string:
		return timeutils.ParseDateString(v)
	case int64:
		return time.Unix(v, 0), nil
	case float64:
		return time.Unix(int64(v), 0), nil
	default:
		return time.Time{}, errors.New("invalid date format")
	}
}

// CoerceRecord returns a copy of values where ObjectID and Date fields hold
// their native types.
func CoerceRecord(values Record, schema *Schema) Record {
	if values == nil {
		return nil
	}

	result := make(Record, len(values))
	for key, value := range values {
		field, ok := schema.Field(key)
		if !ok || strings.Contains(key, ".") {
			result[key] = value
			continue
		}

		_, isList := toList(value)
		result[key] = coerceValue(value, field, isList)
	}
	return result
}
