package database

import "sync"

// MemoryConnector keeps every collection in process memory. It backs tests
// and the memory connector of the service.
type MemoryConnector struct {
	name        string
	database    string
	mu          sync.Mutex
	collections map[string]*MemoryStore
}

func NewMemoryConnector(name string) *MemoryConnector {
	if name == "" {
		name = "memory"
	}

	return &MemoryConnector{
		name:        name,
		database:    name,
		collections: map[string]*MemoryStore{},
	}
}

func (receiver *MemoryConnector) Ping() error {
	return nil
}

func (receiver *MemoryConnector) Disconnect() error {
	return nil
}

func (receiver *MemoryConnector) GetName() string {
	return receiver.name
}

func (receiver *MemoryConnector) GetDatabaseName() string {
	return receiver.database
}

func (receiver *MemoryConnector) Collection(name string) Store {
	return receiver.MemoryCollection(name)
}

// MemoryCollection returns the concrete store of a collection, creating it
// on first use.
func (receiver *MemoryConnector) MemoryCollection(name string) *MemoryStore {
	receiver.mu.Lock()
	defer receiver.mu.Unlock()

	store, ok := receiver.collections[name]
	if !ok {
		store = NewMemoryStore()
		receiver.collections[name] = store
	}
	return store
}
