package database

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func matchFilter(doc Record, filter bson.M) (bool, error) {
	for key, cond := range filter {
		switch key {
		case AND, OR:
			clauses, ok := toList(cond)
			if !ok {
				return false, errors.Errorf("%s expects an array", key)
			}

			matchedAny := false
			for _, clause := range clauses {
				sub, ok := asMap(clause)
				if !ok {
					return false, errors.Errorf("%s expects an array of documents", key)
				}

				matched, err := matchFilter(doc, sub)
				if err != nil {
					return false, err
				}

				if key == AND && !matched {
					return false, nil
				}
				if matched {
					matchedAny = true
				}
			}

			if key == OR && !matchedAny {
				return false, nil
			}
		default:
			if strings.HasPrefix(key, COMMAND_PREFIX) {
				return false, errors.Errorf("unsupported top level operator %s", key)
			}

			value, exists := lookupPath(doc, key)
			matched, err := matchCondition(value, exists, cond)
			if err != nil || !matched {
				return false, err
			}
		}
	}

	return true, nil
}

func matchCondition(value any, exists bool, cond any) (bool, error) {
	operators, ok := asOperatorMap(cond)
	if !ok {
		return equalsOrContains(value, cond), nil
	}

	for op, arg := range operators {
		var matched bool
		switch op {
		case "$eq":
			matched = equalsOrContains(value, arg)
		case "$ne":
			matched = !equalsOrContains(value, arg)
		case "$gt", "$gte", "$lt", "$lte":
			matched = anyElement(value, func(v any) bool {
				cmp, comparable := compareValues(v, arg)
				if !comparable {
					return false
				}
				switch op {
				case "$gt":
					return cmp > 0
				case "$gte":
					return cmp >= 0
				case "$lt":
					return cmp < 0
				default:
					return cmp <= 0
				}
			})
		case "$in", "$nin":
			candidates, ok := toList(arg)
			if !ok {
				return false, errors.Errorf("%s expects an array", op)
			}
			found := false
			for _, candidate := range candidates {
				if equalsOrContains(value, candidate) {
					found = true
					break
				}
			}
			matched = found == (op == "$in")
		case "$exists":
			want, ok := arg.(bool)
			if !ok {
				return false, errors.New("$exists expects a boolean")
			}
			matched = exists == want
		case "$regex":
			pattern, _ := arg.(string)
			if flags, ok := operators["$options"].(string); ok && flags != "" {
				pattern = "(?" + flags + ")" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false, err
			}
			matched = anyElement(value, func(v any) bool {
				s, ok := v.(string)
				return ok && re.MatchString(s)
			})
		case "$options":
			matched = true
		case "$not":
			inner, err := matchCondition(value, exists, arg)
			if err != nil {
				return false, err
			}
			matched = !inner
		default:
			return false, errors.Errorf("unsupported operator %s", op)
		}

		if !matched {
			return false, nil
		}
	}

	return true, nil
}

func applyUpdate(doc Record, update bson.M) error {
	for op, arg := range update {
		fields, ok := asMap(arg)
		if !ok {
			return errors.Errorf("%s expects a document", op)
		}

		for field, value := range fields {
			switch op {
			case SET:
				setPath(doc, field, cloneValue(value))
			case UNSET:
				unsetPath(doc, field)
			case INC:
				current, _ := lookupPath(doc, field)
				sum, err := addNumbers(current, value)
				if err != nil {
					return err
				}
				setPath(doc, field, sum)
			case PUSH:
				current, _ := lookupPath(doc, field)
				list, err := listOrEmpty(current, field)
				if err != nil {
					return err
				}
				if modifiers, ok := asOperatorMap(value); ok {
					each, ok := toList(modifiers[EACH])
					if !ok {
						return errors.New("$push modifiers require $each")
					}
					list = append(list, cloneList(each)...)
				} else {
					list = append(list, cloneValue(value))
				}
				setPath(doc, field, list)
			case PULL_ALL:
				current, exists := lookupPath(doc, field)
				if !exists || current == nil {
					continue
				}
				list, err := listOrEmpty(current, field)
				if err != nil {
					return err
				}
				removed, ok := toList(value)
				if !ok {
					return errors.New("$pullAll expects an array")
				}
				kept := make([]any, 0, len(list))
				for _, item := range list {
					if !containsValue(removed, item) {
						kept = append(kept, item)
					}
				}
				setPath(doc, field, kept)
			default:
				return errors.Errorf("unsupported update operator %s", op)
			}
		}
	}

	return nil
}

func project(doc Record, projection map[string]bool) Record {
	if len(projection) == 0 {
		return cloneRecord(doc)
	}

	inclusive := false
	for key, include := range projection {
		if key != ID && include {
			inclusive = true
			break
		}
	}

	result := Record{}
	if inclusive {
		for key, include := range projection {
			if value, ok := doc[key]; ok && include {
				result[key] = cloneValue(value)
			}
		}
		if include, ok := projection[ID]; !ok || include {
			result[ID] = doc[ID]
		}
		return result
	}

	for key, value := range doc {
		if include, ok := projection[key]; ok && !include {
			continue
		}
		result[key] = cloneValue(value)
	}
	return result
}

func lookupPath(doc map[string]any, path string) (any, bool) {
	current := any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setPath(doc map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(current[part])
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func unsetPath(doc map[string]any, path string) {
	parts := strings.Split(path, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(current[part])
		if !ok {
			return
		}
		current = next
	}
	delete(current, parts[len(parts)-1])
}

// asMap accepts every map flavour a filter or record may carry.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case bson.M:
		return m, true
	case bson.D:
		result := make(map[string]any, len(m))
		for _, elem := range m {
			result[elem.Key] = elem.Value
		}
		return result, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		result := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			result[iter.Key().String()] = iter.Value().Interface()
		}
		return result, true
	}

	return nil, false
}

func asOperatorMap(v any) (map[string]any, bool) {
	m, ok := asMap(v)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for key := range m {
		if !strings.HasPrefix(key, COMMAND_PREFIX) {
			return nil, false
		}
	}
	return m, true
}

// toList converts any slice or array except ObjectID into []any.
func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case bson.A:
		return l, true
	case bson.ObjectID, []byte, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	result := make([]any, rv.Len())
	for i := range rv.Len() {
		result[i] = rv.Index(i).Interface()
	}
	return result, true
}

func listOrEmpty(v any, field string) ([]any, error) {
	if v == nil {
		return []any{}, nil
	}
	list, ok := toList(v)
	if !ok {
		return nil, errors.Errorf("the field %s is not an array", field)
	}
	return append([]any{}, list...), nil
}

func anyElement(value any, fn func(any) bool) bool {
	if list, ok := toList(value); ok {
		for _, item := range list {
			if fn(item) {
				return true
			}
		}
		return false
	}
	return fn(value)
}

func equalsOrContains(value any, target any) bool {
	if valuesEqual(value, target) {
		return true
	}
	if _, targetIsList := toList(target); targetIsList {
		return false
	}
	if list, ok := toList(value); ok {
		return containsValue(list, target)
	}
	return false
}

func containsValue(list []any, target any) bool {
	for _, item := range list {
		if valuesEqual(item, target) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}

	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}

	if al, ok := toList(a); ok {
		bl, ok := toList(b)
		if !ok || len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !valuesEqual(al[i], bl[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bson.ObjectID:
		bv, ok := b.(bson.ObjectID)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Hex(), bv.Hex()), true
	}

	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func addNumbers(current any, delta any) (any, error) {
	d, ok := toFloat(delta)
	if !ok {
		return nil, errors.New("$inc expects a number")
	}
	if current == nil {
		return delta, nil
	}
	c, ok := toFloat(current)
	if !ok {
		return nil, errors.New("$inc target is not a number")
	}

	ci, currentIsInt := toInt64(current)
	di, deltaIsInt := toInt64(delta)
	if currentIsInt && deltaIsInt {
		return ci + di, nil
	}
	return c + d, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func cloneRecord(doc Record) Record {
	if doc == nil {
		return nil
	}
	result := make(Record, len(doc))
	for key, value := range doc {
		result[key] = cloneValue(value)
	}
	return result
}

func cloneList(list []any) []any {
	result := make([]any, len(list))
	for i, item := range list {
		result[i] = cloneValue(item)
	}
	return result
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case bson.M:
		return cloneRecord(value)
	case map[string]any:
		return map[string]any(cloneRecord(value))
	case []any:
		return cloneList(value)
	case bson.A:
		return cloneList(value)
	}
	return v
}

// AsMap returns v as a plain map when it is any kind of string keyed map.
func AsMap(v any) (map[string]any, bool) {
	return asMap(v)
}

// AsList returns v as a slice when it is any kind of slice or array other
// than an ObjectID.
func AsList(v any) ([]any, bool) {
	return toList(v)
}
