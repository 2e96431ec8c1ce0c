package dataaccess

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/go-errors/errors"
	"github.com/labstack/gommon/log"
	"github.com/xompass/vsaas-dal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	MIXED_UPDATE = "the update has a mix between fields and commands"
	EMPTY_UPDATE = "the update is empty"
)

// Resolver maps a model name to its handle. *database.Datasource implements
// it.
type Resolver interface {
	Resolve(modelName string) (*database.ModelHandle, error)
}

// Logger is the subset of gommon's and echo's loggers the engine writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Engine runs CRUD and association operations against any model the
// resolver knows about. It holds no state of its own besides its
// configuration and is safe for concurrent use.
type Engine struct {
	resolver     Resolver
	logger       Logger
	defaultLimit int64
}

type EngineOption func(*Engine)

func WithLogger(logger Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDefaultLimit sets the cap used by multi-record queries whose Options
// do not carry their own DefaultLimit.
func WithDefaultLimit(limit int64) EngineOption {
	return func(e *Engine) {
		if limit > 0 {
			e.defaultLimit = limit
		}
	}
}

func NewEngine(resolver Resolver, opts ...EngineOption) *Engine {
	e := &Engine{
		resolver: resolver,
		logger:   log.New("dataaccess"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) resolve(modelName string) (*database.ModelHandle, error) {
	if e.resolver == nil {
		return nil, database.ErrModelNotFound
	}
	return e.resolver.Resolve(modelName)
}

func (e *Engine) normalize(c Criteria, opts Options) Query {
	if c == nil {
		c = ByFilter{}
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = e.defaultLimit
	}
	return Normalize(c, opts)
}

func (e *Engine) filter(handle *database.ModelHandle, query Query) (bson.M, error) {
	return database.TranslateWhere(query.Where, handle.Schema())
}

// Create inserts values into the model's collection and returns the stored
// record.
func (e *Engine) Create(ctx context.Context, modelName string, values database.Record) (database.Record, error) {
	handle, err := e.resolve(modelName)
	if err != nil {
		return nil, err
	}

	doc := database.CoerceRecord(values, handle.Schema())
	if doc == nil {
		doc = database.Record{}
	}

	id, err := handle.Store().InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}

	if id == nil {
		return doc, nil
	}
	doc[database.ID] = id

	created, err := handle.Store().FindOne(ctx, bson.M{database.ID: id}, database.FindOptions{})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return doc, nil
	}

	e.logger.Debugf("created %s %v", modelName, id)
	return created, nil
}

// CreateMany inserts every value set in order. The returned records carry
// the primary keys the store assigned.
func (e *Engine) CreateMany(ctx context.Context, modelName string, values []database.Record) ([]database.Record, error) {
	handle, err := e.resolve(modelName)
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return []database.Record{}, nil
	}

	docs := make([]database.Record, len(values))
	for i, value := range values {
		docs[i] = database.CoerceRecord(value, handle.Schema())
		if docs[i] == nil {
			docs[i] = database.Record{}
		}
	}

	ids, err := handle.Store().InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}

	for i, id := range ids {
		if i < len(docs) && id != nil {
			docs[i][database.ID] = id
		}
	}

	e.logger.Debugf("created %d %s records", len(docs), modelName)
	return docs, nil
}

// Find returns the record selected by a single-record query, nil when it
// does not exist, or the ordered list of records matching a filter.
func (e *Engine) Find(ctx context.Context, modelName string, c Criteria, opts Options) (Result, error) {
	handle, err := e.resolve(modelName)
	if err != nil {
		return Result{}, err
	}

	query := e.normalize(c, opts)
	filter, err := e.filter(handle, query)
	if err != nil {
		return Result{}, err
	}

	if query.Single {
		record, err := handle.Store().FindOne(ctx, filter, database.FindOptions{Projection: query.Fields})
		if err != nil {
			return Result{}, err
		}
		return singleResult(record), nil
	}

	records, err := handle.Store().Find(ctx, filter, database.FindOptions{Limit: query.Limit, Projection: query.Fields})
	if err != nil {
		return Result{}, err
	}
	return listResult(records), nil
}

// Update applies values to the records selected by c and returns them as
// they are after the update. The ids are selected first, so records that
// stop matching the filter because of the update are still returned.
func (e *Engine) Update(ctx context.Context, modelName string, c Criteria, values database.Record, opts Options) (Result, error) {
	handle, err := e.resolve(modelName)
	if err != nil {
		return Result{}, err
	}

	update, err := prepareUpdate(values, handle.Schema())
	if err != nil {
		return Result{}, err
	}

	query := e.normalize(c, opts)
	filter, err := e.filter(handle, query)
	if err != nil {
		return Result{}, err
	}

	store := handle.Store()

	if query.Single {
		if _, byID := c.(ByID); !byID {
			selected, err := store.FindOne(ctx, filter, database.FindOptions{Projection: map[string]bool{database.ID: true}})
			if err != nil {
				return Result{}, err
			}
			if selected == nil {
				return singleResult(nil), nil
			}
			filter = bson.M{database.ID: selected[database.ID]}
		}

		matched, err := store.UpdateMany(ctx, filter, update)
		if err != nil {
			return Result{}, err
		}
		if matched == 0 {
			return singleResult(nil), nil
		}

		record, err := store.FindOne(ctx, filter, database.FindOptions{Projection: query.Fields})
		if err != nil {
			return Result{}, err
		}
		return singleResult(record), nil
	}

	selected, err := store.Find(ctx, filter, database.FindOptions{Limit: query.Limit, Projection: map[string]bool{database.ID: true}})
	if err != nil {
		return Result{}, err
	}

	ids := listResult(selected).IDs()
	if len(ids) == 0 {
		return listResult(nil), nil
	}

	byIDs := bson.M{database.ID: bson.M{database.IN: ids}}
	if _, err := store.UpdateMany(ctx, byIDs, update); err != nil {
		return Result{}, err
	}

	records, err := store.Find(ctx, byIDs, database.FindOptions{Projection: keepID(query.Fields)})
	if err != nil {
		return Result{}, err
	}

	e.logger.Debugf("updated %d %s records", len(ids), modelName)
	return listResult(dropExcludedID(orderByIDs(records, ids), query.Fields)), nil
}

// Destroy removes the records selected by c and returns them as they were
// before the removal.
func (e *Engine) Destroy(ctx context.Context, modelName string, c Criteria, opts Options) (Result, error) {
	handle, err := e.resolve(modelName)
	if err != nil {
		return Result{}, err
	}

	query := e.normalize(c, opts)
	filter, err := e.filter(handle, query)
	if err != nil {
		return Result{}, err
	}

	store := handle.Store()
	findOpts := database.FindOptions{Projection: keepID(query.Fields)}

	if query.Single {
		record, err := store.FindOne(ctx, filter, findOpts)
		if err != nil {
			return Result{}, err
		}
		if record == nil {
			return singleResult(nil), nil
		}

		if _, err := store.DeleteMany(ctx, bson.M{database.ID: record[database.ID]}); err != nil {
			return Result{}, err
		}
		return singleResult(record), nil
	}

	findOpts.Limit = query.Limit
	records, err := store.Find(ctx, filter, findOpts)
	if err != nil {
		return Result{}, err
	}

	result := listResult(records)
	ids := result.IDs()
	if len(ids) == 0 {
		return result, nil
	}

	if _, err := store.DeleteMany(ctx, bson.M{database.ID: bson.M{database.IN: ids}}); err != nil {
		return Result{}, err
	}

	e.logger.Debugf("destroyed %d %s records", len(ids), modelName)
	return result, nil
}

// Count returns how many records c selects. The default limit does not apply.
func (e *Engine) Count(ctx context.Context, modelName string, c Criteria) (int64, error) {
	handle, err := e.resolve(modelName)
	if err != nil {
		return 0, err
	}

	query := Normalize(orEmpty(c), Options{})
	filter, err := e.filter(handle, query)
	if err != nil {
		return 0, err
	}

	return handle.Store().Count(ctx, filter)
}

// Exists reports whether a record with the given primary key exists.
func (e *Engine) Exists(ctx context.Context, modelName string, id any) (bool, error) {
	count, err := e.Count(ctx, modelName, ByID{ID: id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func orEmpty(c Criteria) Criteria {
	if c == nil {
		return ByFilter{}
	}
	return c
}

// prepareUpdate turns values into an update document. Plain fields are
// wrapped in $set, operator documents are used as they are. A mix of both is
// rejected.
func prepareUpdate(values database.Record, schema *database.Schema) (bson.M, error) {
	if len(values) == 0 {
		return nil, errors.Errorf("%w: %s", ErrInvalidUpdate, EMPTY_UPDATE)
	}

	hasFields := false
	hasCommands := false
	for key := range values {
		if strings.HasPrefix(key, database.COMMAND_PREFIX) {
			hasCommands = true
		} else {
			hasFields = true
		}
	}

	if hasFields && hasCommands {
		return nil, errors.Errorf("%w: %s", ErrInvalidUpdate, MIXED_UPDATE)
	}

	if hasFields {
		set := database.CoerceRecord(values, schema)
		delete(set, database.ID)
		if len(set) == 0 {
			return nil, errors.Errorf("%w: %s", ErrInvalidUpdate, EMPTY_UPDATE)
		}
		return bson.M{database.SET: set}, nil
	}

	update := bson.M{}
	for op, arg := range values {
		fields, ok := database.AsMap(arg)
		if !ok {
			return nil, errors.Errorf("%w: %s expects a document, got %T", ErrInvalidUpdate, op, arg)
		}

		fields = maps.Clone(fields)
		delete(fields, database.ID)
		if len(fields) == 0 {
			continue
		}

		if op == database.SET {
			fields = database.CoerceRecord(fields, schema)
		}
		update[op] = bson.M(fields)
	}

	if len(update) == 0 {
		return nil, errors.Errorf("%w: %s", ErrInvalidUpdate, EMPTY_UPDATE)
	}
	return update, nil
}

// keepID makes sure a projection does not drop the primary key.
func keepID(fields map[string]bool) map[string]bool {
	if include, ok := fields[database.ID]; !ok || include {
		return fields
	}
	fields = maps.Clone(fields)
	delete(fields, database.ID)
	return fields
}

// dropExcludedID removes the primary key from records read with keepID when
// the caller's projection excluded it.
func dropExcludedID(records []database.Record, fields map[string]bool) []database.Record {
	if include, ok := fields[database.ID]; !ok || include {
		return records
	}
	for _, record := range records {
		delete(record, database.ID)
	}
	return records
}

func orderByIDs(records []database.Record, ids []any) []database.Record {
	byKey := make(map[string]database.Record, len(records))
	for _, record := range records {
		byKey[idKey(record[database.ID])] = record
	}

	ordered := make([]database.Record, 0, len(records))
	for _, id := range ids {
		if record, ok := byKey[idKey(id)]; ok {
			ordered = append(ordered, record)
		}
	}
	return ordered
}

func idKey(id any) string {
	return fmt.Sprintf("%T:%v", id, id)
}
