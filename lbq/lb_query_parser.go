package lbq

import (
	"strings"

	"github.com/go-errors/errors"
	"github.com/valyala/fastjson"
)

var filterPool fastjson.ParserPool
var wherePool fastjson.ParserPool
var fieldsPool fastjson.ParserPool
var valuePool fastjson.ParserPool

var operators = map[string]bool{
	"eq":     true,
	"neq":    true,
	"gt":     true,
	"gte":    true,
	"lt":     true,
	"lte":    true,
	"inq":    true,
	"nin":    true,
	"and":    true,
	"or":     true,
	"like":   true,
	"nlike":  true,
	"exists": true,
} // @name Operator

type AndOrCondition []Where

type Where map[string]any // @name Where

type Fields map[string]bool // @name Fields

// Filter is the subset of the loopback filter the data-access layer
// understands. Order, skip and include are not part of it.
type Filter struct {
	Fields Fields `json:"fields,omitempty"`
	Limit  uint   `json:"limit,omitempty"`
	Where  Where  `json:"where,omitempty"`
} // @name Filter

func parseWhereValue(where *fastjson.Value) (Where, error) {
	if where == nil {
		return nil, nil
	}

	if where.Type() != fastjson.TypeObject {
		return nil, errors.New("invalid where filter")
	}

	val, _ := where.Object()

	var nestedError error

	likeCond := val.Get("like")
	nlikeCond := val.Get("nlike")
	opts := val.Get("options")

	if likeCond != nil {
		return likeWhere("like", likeCond, opts), nil
	}

	if nlikeCond != nil {
		return likeWhere("nlike", nlikeCond, opts), nil
	}

	result := Where{}
	val.Visit(func(key []byte, v *fastjson.Value) {
		if nestedError != nil {
			return
		}

		keyStr := string(key)

		// Operators are only accepted by their loopback names.
		if strings.HasPrefix(keyStr, "$") {
			nestedError = errors.Errorf("invalid use of operator or field: %s", keyStr)
			return
		}

		valueType := v.Type()

		switch {
		case keyStr == "and" || keyStr == "or":
			if valueType != fastjson.TypeArray {
				nestedError = errors.New("invalid query")
				return
			}
			andOr := AndOrCondition{}
			arr, _ := v.Array()
			for _, nested := range arr {
				cond, err := parseWhereValue(nested)
				if err != nil {
					nestedError = err
					return
				}
				andOr = append(andOr, cond)
			}
			result[keyStr] = andOr
		case valueType == fastjson.TypeObject:
			lbWhere, err := parseWhereValue(v)
			if err != nil {
				nestedError = err
				return
			}
			result[keyStr] = lbWhere
		default:
			_, isOp := operators[keyStr]
			if isOp && (keyStr == "inq" || keyStr == "nin") && valueType != fastjson.TypeArray {
				nestedError = errors.New("invalid query")
				return
			}
			value := getRawValue(v)
			if isOp {
				result[keyStr] = value
			} else {
				result[keyStr] = Where{
					"eq": value,
				}
			}
		}
	})

	return result, nestedError
}

func likeWhere(op string, cond *fastjson.Value, opts *fastjson.Value) Where {
	where := Where{op: getRawValue(cond)}
	if opts != nil {
		where["options"] = getRawValue(opts)
	}
	return where
}

func getRawValue(v *fastjson.Value) any {
	if v == nil {
		return nil
	}

	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return i
		}
		return v.GetFloat64()
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeArray:
		arr := v.GetArray()
		value := make([]any, 0, len(arr))
		for _, current := range arr {
			value = append(value, getRawValue(current))
		}
		return value
	case fastjson.TypeObject:
		obj := v.GetObject()
		value := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, v *fastjson.Value) {
			value[string(key)] = getRawValue(v)
		})
		return value
	}

	return nil
}

func parseFieldsValue(v *fastjson.Value) (Fields, error) {
	fields := Fields{}
	switch v.Type() { //nolint:exhaustive
	case fastjson.TypeArray:
		arr := v.GetArray()

		for _, value := range arr {
			if value.Type() != fastjson.TypeString {
				return nil, errors.New("invalid fields param")
			}
			fields[string(value.GetStringBytes())] = true
		}
	case fastjson.TypeObject:
		obj := v.GetObject()
		obj.Visit(func(key []byte, v *fastjson.Value) {
			prop := string(key)
			switch v.Type() { //nolint:exhaustive
			case fastjson.TypeFalse:
				fields[prop] = false
			case fastjson.TypeTrue:
				fields[prop] = true
			}
		})
	default:
		return nil, errors.New("invalid fields param")
	}
	return fields, nil
}

func parseFilterValue(parsedFilter *fastjson.Value) (*Filter, error) {
	if parsedFilter.Type() != fastjson.TypeObject {
		return nil, errors.New("invalid filter")
	}
	whereValue := parsedFilter.Get("where")
	filter := &Filter{}
	if whereValue != nil {
		lbWhere, err := parseWhereValue(whereValue)
		if err != nil {
			return nil, err
		}
		filter.Where = lbWhere
	}

	fieldsValue := parsedFilter.Get("fields")
	if fieldsValue != nil {
		fields, err := parseFieldsValue(fieldsValue)
		if err != nil {
			return nil, err
		}

		filter.Fields = fields
	}

	limitValue := parsedFilter.Get("limit")
	if limitValue != nil {
		limit, err := limitValue.Uint()
		if err != nil {
			return nil, errors.New("invalid limit param")
		}
		filter.Limit = limit
	}

	return filter, nil
}

// ParseWhere parses a where object such as {"status":"active"}.
func ParseWhere(f string) (Where, error) {
	parser := wherePool.Get()
	defer wherePool.Put(parser)

	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, errors.New("cannot parse where query")
	}
	return parseWhereValue(parsed)
}

func ParseFields(f string) (Fields, error) {
	parser := fieldsPool.Get()
	defer fieldsPool.Put(parser)

	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, errors.New("cannot parse fields query")
	}
	return parseFieldsValue(parsed)
}

// ParseFilter parses a {"where":..., "fields":..., "limit":...} filter.
func ParseFilter(f string) (*Filter, error) {
	parser := filterPool.Get()
	defer filterPool.Put(parser)

	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, errors.New("cannot parse filter")
	}
	return parseFilterValue(parsed)
}

// ParseValue parses any JSON value into plain Go values. Objects become
// map[string]any and numbers without a fraction become int64.
func ParseValue(f string) (any, error) {
	parser := valuePool.Get()
	defer valuePool.Put(parser)

	parsed, err := parser.Parse(f)
	if err != nil {
		return nil, errors.New("cannot parse value")
	}
	return getRawValue(parsed), nil
}
