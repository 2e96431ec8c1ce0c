package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-errors/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MemoryStore is an ordered, mutex guarded collection of documents that
// understands the same filter and update dialect as MongoStore.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (store *MemoryStore) InsertOne(ctx context.Context, doc Record) (any, error) {
	ids, err := store.InsertMany(ctx, []Record{doc})
	if err != nil {
		return nil, err
	}
	return ids[0], nil
}

func (store *MemoryStore) InsertMany(ctx context.Context, docs []Record) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	prepared := make([]Record, 0, len(docs))
	ids := make([]any, 0, len(docs))
	for idx, doc := range docs {
		copied := cloneRecord(doc)
		if copied == nil {
			copied = Record{}
		}

		if id, ok := copied[ID]; !ok || id == nil {
			copied[ID] = bson.NewObjectID()
		}

		if store.indexOf(copied[ID]) >= 0 || containsID(prepared, copied[ID]) {
			return nil, duplicateKeyError(idx, copied[ID])
		}

		prepared = append(prepared, copied)
		ids = append(ids, copied[ID])
	}

	store.docs = append(store.docs, prepared...)
	return ids, nil
}

func (store *MemoryStore) FindOne(ctx context.Context, filter bson.M, opts FindOptions) (Record, error) {
	opts.Limit = 1
	docs, err := store.Find(ctx, filter, opts)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (store *MemoryStore) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	result := []Record{}
	for _, doc := range store.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		result = append(result, project(doc, opts.Projection))
		if opts.Limit > 0 && int64(len(result)) >= opts.Limit {
			break
		}
	}

	return result, nil
}

func (store *MemoryStore) UpdateMany(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if len(update) == 0 {
		return 0, errors.New("update document must not be empty")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	var matched int64
	for idx, doc := range store.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return matched, err
		}
		if !ok {
			continue
		}

		updated := cloneRecord(doc)
		if err := applyUpdate(updated, update); err != nil {
			return matched, err
		}

		store.docs[idx] = updated
		matched++
	}

	return matched, nil
}

func (store *MemoryStore) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	kept := store.docs[:0]
	var deleted int64
	for _, doc := range store.docs {
		ok, err := matchFilter(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}

	for idx := len(kept); idx < len(store.docs); idx++ {
		store.docs[idx] = nil
	}
	store.docs = kept
	return deleted, nil
}

func (store *MemoryStore) Count(ctx context.Context, filter bson.M) (int64, error) {
	docs, err := store.Find(ctx, filter, FindOptions{Projection: map[string]bool{ID: true}})
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// Len returns the number of stored documents.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.docs)
}

func (store *MemoryStore) indexOf(id any) int {
	for idx, doc := range store.docs {
		if valuesEqual(doc[ID], id) {
			return idx
		}
	}
	return -1
}

func containsID(docs []Record, id any) bool {
	for _, doc := range docs {
		if valuesEqual(doc[ID], id) {
			return true
		}
	}
	return false
}

func duplicateKeyError(index int, id any) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Index:   index,
			Code:    11000,
			Message: fmt.Sprintf("E11000 duplicate key error dup key: { _id: %v }", id),
		}},
	}
}
