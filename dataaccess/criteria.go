package dataaccess

import (
	"maps"

	"github.com/xompass/vsaas-dal/database"
)

// Where is a field-equality/operator filter in the loopback dialect, e.g.
// {"status": "active", "age": {"gte": 18}}.
type Where = map[string]any

// Criteria selects the records an operation targets. It is either ByID or
// ByFilter.
type Criteria interface {
	criteria()
}

// ByID selects exactly one record by primary key.
type ByID struct {
	ID any
}

// ByFilter selects zero or more records matching Where.
type ByFilter struct {
	Where Where
}

func (ByID) criteria()     {}
func (ByFilter) criteria() {}

// Classify turns a loosely typed criteria value into a Criteria. Any string
// keyed map is a filter, nil is the empty filter and everything else is a
// primary key.
func Classify(v any) Criteria {
	switch c := v.(type) {
	case nil:
		return ByFilter{Where: Where{}}
	case Criteria:
		return c
	}

	if where, ok := database.AsMap(v); ok {
		return ByFilter{Where: where}
	}

	return ByID{ID: v}
}

// Options tune a single operation.
type Options struct {
	// DefaultLimit caps how many records a multi-record query may match. It is
	// applied before the operation runs. Zero means no cap.
	DefaultLimit int64

	// FindOne forces single-record semantics even for a filter.
	FindOne bool

	// Fields is a projection applied to the records an operation returns.
	Fields map[string]bool
}

// Query is the normalized form of a criteria value.
type Query struct {
	Single bool
	Where  Where
	Limit  int64
	Fields map[string]bool
}

// Normalize classifies criteria into a single or multi record query. It
// never touches a store.
func Normalize(c Criteria, opts Options) Query {
	query := Query{Fields: opts.Fields}

	switch v := c.(type) {
	case ByID:
		query.Single = true
		query.Where = Where{database.ID: v.ID}
		return query
	case ByFilter:
		query.Where = maps.Clone(v.Where)
	}

	if query.Where == nil {
		query.Where = Where{}
	}

	if opts.FindOne {
		query.Single = true
		return query
	}

	if opts.DefaultLimit > 0 {
		query.Limit = opts.DefaultLimit
	}
	return query
}
