package database

// ModelHandle binds a registered model schema to the store of its
// collection. Handles are only obtained through Datasource.Resolve.
type ModelHandle struct {
	schema    *Schema
	store     Store
	connector Connector
}

func (h *ModelHandle) Name() string {
	if h == nil || h.schema == nil {
		return ""
	}
	return h.schema.Name
}

func (h *ModelHandle) Schema() *Schema {
	if h == nil {
		return nil
	}
	return h.schema
}

func (h *ModelHandle) Store() Store {
	if h == nil {
		return nil
	}
	return h.store
}

func (h *ModelHandle) Connector() Connector {
	if h == nil {
		return nil
	}
	return h.connector
}

// ReferenceDefinition returns the definition of fieldName when it is a
// reference to another model. A missing field or an invalid handle is not an
// error, it just yields false.
func (h *ModelHandle) ReferenceDefinition(fieldName string) (*FieldDefinition, bool) {
	if h == nil || h.schema == nil {
		return nil, false
	}

	field, ok := h.schema.References[fieldName]
	if !ok || field == nil || !field.IsReference {
		return nil, false
	}

	return field, true
}

// ReferenceModelName returns the name of the model fieldName points to.
func (h *ModelHandle) ReferenceModelName(fieldName string) (string, bool) {
	field, ok := h.ReferenceDefinition(fieldName)
	if !ok || field.ReferencedModelName == "" {
		return "", false
	}
	return field.ReferencedModelName, true
}
