package database

import (
	"sort"
	"sync"

	"github.com/go-errors/errors"
)

// ErrModelNotFound is returned by Resolve when no model is registered under
// the requested name.
var ErrModelNotFound = errors.New("model not found")

type Datasource struct {
	mu               sync.RWMutex
	connectors       map[string]Connector    // Connectors registered in the datasource. This allows to have multiple connectors for different databases.
	models           map[string]*ModelHandle // Models registered in the datasource, by model name.
	defaultConnector string                  // Name of the first connector added. Used by models that do not name one.
}

func NewDatasource(connectors ...Connector) (*Datasource, error) {
	ds := &Datasource{}
	for _, connector := range connectors {
		if err := ds.AddConnector(connector); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (receiver *Datasource) AddConnector(connector Connector) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	if connector == nil {
		return errors.New("connector is nil")
	}

	receiver.mu.Lock()
	defer receiver.mu.Unlock()

	if receiver.connectors == nil {
		receiver.connectors = make(map[string]Connector)
	}

	name := connector.GetName()
	if _, exists := receiver.connectors[name]; exists {
		return errors.Errorf("the connector %s is already registered", name)
	}

	receiver.connectors[name] = connector
	if receiver.defaultConnector == "" {
		receiver.defaultConnector = name
	}
	return nil
}

func (receiver *Datasource) Destroy() {
	if receiver == nil {
		return
	}

	receiver.mu.RLock()
	defer receiver.mu.RUnlock()

	for _, connector := range receiver.connectors {
		if connector != nil {
			_ = connector.Disconnect()
		}
	}
}

func (receiver *Datasource) GetConnector(name string) (Connector, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	receiver.mu.RLock()
	defer receiver.mu.RUnlock()

	return receiver.getConnector(name)
}

func (receiver *Datasource) getConnector(name string) (Connector, error) {
	if name == "" {
		name = receiver.defaultConnector
	}

	connector, ok := receiver.connectors[name]
	if !ok {
		return nil, errors.Errorf("the connector %s is not registered", name)
	}

	return connector, nil
}

// RegisterModel builds the schema of def and binds it to the collection of
// its connector.
func (receiver *Datasource) RegisterModel(def ModelDefinition) (*ModelHandle, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	schema, err := NewSchema(def)
	if err != nil {
		return nil, err
	}

	receiver.mu.Lock()
	defer receiver.mu.Unlock()

	if existing, ok := receiver.models[schema.Name]; ok {
		return nil, errors.Errorf("the model %s is already registered with connector %s", schema.Name, existing.connector.GetName())
	}

	connector, err := receiver.getConnector(def.ConnectorName)
	if err != nil {
		return nil, err
	}

	if receiver.models == nil {
		receiver.models = make(map[string]*ModelHandle)
	}

	handle := &ModelHandle{
		schema:    schema,
		store:     connector.Collection(schema.CollectionName),
		connector: connector,
	}

	receiver.models[schema.Name] = handle
	return handle, nil
}

// RegisterModels registers every definition and then validates that every
// reference points to a registered model.
func (receiver *Datasource) RegisterModels(defs ...ModelDefinition) error {
	for _, def := range defs {
		if _, err := receiver.RegisterModel(def); err != nil {
			return err
		}
	}
	return receiver.Validate()
}

// Validate checks that every declared reference targets a registered model.
func (receiver *Datasource) Validate() error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	receiver.mu.RLock()
	defer receiver.mu.RUnlock()

	for _, handle := range receiver.sortedModels() {
		for _, fieldName := range sortedKeys(handle.schema.References) {
			target := handle.schema.References[fieldName].ReferencedModelName
			if _, ok := receiver.models[target]; !ok {
				return errors.Errorf("the field %s.%s references the unregistered model %s", handle.schema.Name, fieldName, target)
			}
		}
	}

	return nil
}

// Resolve returns the handle of a registered model. It never touches a store.
func (receiver *Datasource) Resolve(modelName string) (*ModelHandle, error) {
	if receiver == nil {
		return nil, ErrModelNotFound
	}

	receiver.mu.RLock()
	defer receiver.mu.RUnlock()

	handle, ok := receiver.models[modelName]
	if !ok {
		return nil, ErrModelNotFound
	}

	return handle, nil
}

// Models returns every registered model ordered by name.
func (receiver *Datasource) Models() []*ModelHandle {
	if receiver == nil {
		return nil
	}

	receiver.mu.RLock()
	defer receiver.mu.RUnlock()

	return receiver.sortedModels()
}

func (receiver *Datasource) sortedModels() []*ModelHandle {
	handles := make([]*ModelHandle, 0, len(receiver.models))
	for _, name := range sortedKeys(receiver.models) {
		handles = append(handles, receiver.models[name])
	}
	return handles
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
