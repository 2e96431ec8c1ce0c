package dataaccess

import (
	"context"
	"maps"

	"github.com/xompass/vsaas-dal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// association is the resolved preamble shared by the association
// operations.
type association struct {
	parentModel string
	field       string
	childModel  string
	definition  *database.FieldDefinition
	parent      database.Record
}

func (a association) isArray() bool {
	return a.definition.Cardinality == database.CardinalityArray
}

func (a association) parentID() any {
	return a.parent[database.ID]
}

func (a association) reference() any {
	return a.parent[a.field]
}

// prepareAssociation resolves the parent model and the reference field, then
// loads the parent record.
func (e *Engine) prepareAssociation(ctx context.Context, parentModel string, parentID any, field string) (association, error) {
	handle, err := e.resolve(parentModel)
	if err != nil {
		return association{}, err
	}

	if isEmptyID(parentID) {
		return association{}, ErrParentIDMissing
	}

	childModel, ok := handle.ReferenceModelName(field)
	if !ok {
		return association{}, ErrReferenceNotFound
	}
	definition, _ := handle.ReferenceDefinition(field)

	parent, err := e.loadParent(ctx, parentModel, parentID)
	if err != nil {
		return association{}, err
	}

	return association{
		parentModel: parentModel,
		field:       field,
		childModel:  childModel,
		definition:  definition,
		parent:      parent,
	}, nil
}

func (e *Engine) loadParent(ctx context.Context, parentModel string, parentID any) (database.Record, error) {
	result, err := e.Find(ctx, parentModel, ByID{ID: parentID}, Options{FindOne: true})
	if err != nil {
		return nil, err
	}
	if result.Record == nil {
		return nil, ErrParentRecordNotFound
	}
	return result.Record, nil
}

// saveParent applies an operator update to the parent record by primary key.
func (e *Engine) saveParent(ctx context.Context, a association, update database.Record) error {
	result, err := e.Update(ctx, a.parentModel, ByID{ID: a.parentID()}, update, Options{})
	if err != nil {
		return err
	}
	if result.Record == nil {
		e.logger.Warnf("%s %v disappeared while updating %s", a.parentModel, a.parentID(), a.field)
		return ErrParentRecordNotFound
	}
	return nil
}

// CreateAssociation creates a child record and links it from the parent's
// reference field. Array references get the child id appended, single
// references are overwritten.
func (e *Engine) CreateAssociation(ctx context.Context, parentModel string, parentID any, field string, values database.Record, opts Options) (database.Record, error) {
	a, err := e.prepareAssociation(ctx, parentModel, parentID, field)
	if err != nil {
		return nil, err
	}

	child, err := e.Create(ctx, a.childModel, values)
	if err != nil {
		return nil, err
	}

	childID := child[database.ID]
	if isEmptyID(childID) {
		return nil, ErrChildCreationFailed
	}

	var update database.Record
	if a.isArray() {
		current, exists := a.parent[field]
		if _, isList := database.AsList(current); isList || !exists {
			update = database.Record{database.PUSH: bson.M{field: childID}}
		} else {
			list := []any{}
			if !isEmptyID(current) {
				list = append(list, current)
			}
			update = database.Record{database.SET: bson.M{field: append(list, childID)}}
		}
	} else {
		update = database.Record{database.SET: bson.M{field: childID}}
	}

	if err := e.saveParent(ctx, a, update); err != nil {
		return nil, err
	}

	e.logger.Debugf("linked %s %v to %s %v through %s", a.childModel, childID, parentModel, a.parentID(), field)

	if len(opts.Fields) == 0 {
		return child, nil
	}

	projected, err := e.Find(ctx, a.childModel, ByID{ID: childID}, Options{Fields: opts.Fields})
	if err != nil {
		return nil, err
	}
	if projected.Record == nil {
		return child, nil
	}
	return projected.Record, nil
}

// FindAssociation returns the children the parent references, narrowed by c.
func (e *Engine) FindAssociation(ctx context.Context, parentModel string, parentID any, field string, c Criteria, opts Options) (Result, error) {
	a, err := e.prepareAssociation(ctx, parentModel, parentID, field)
	if err != nil {
		return Result{}, err
	}

	if isEmptyReference(a.reference()) {
		return listResult(nil), nil
	}

	return e.Find(ctx, a.childModel, ByFilter{Where: mergeCriteria(referenceFilter(a), c)}, opts)
}

// UpdateAssociation updates the fields of the referenced children. The
// parent's reference field is left as it is.
func (e *Engine) UpdateAssociation(ctx context.Context, parentModel string, parentID any, field string, c Criteria, values database.Record, opts Options) (Result, error) {
	a, err := e.prepareAssociation(ctx, parentModel, parentID, field)
	if err != nil {
		return Result{}, err
	}

	if isEmptyReference(a.reference()) {
		return singleResult(nil), nil
	}

	return e.Update(ctx, a.childModel, ByFilter{Where: mergeCriteria(referenceFilter(a), c)}, values, opts)
}

// DestroyAssociation removes children and unlinks them from the parent. It
// returns the ids that were removed from the reference field.
//
// For array references the children are matched by c across the whole child
// collection, not only among the ids the parent holds. For single references
// c is ignored and the referenced child is destroyed.
func (e *Engine) DestroyAssociation(ctx context.Context, parentModel string, parentID any, field string, c Criteria, opts Options) ([]any, error) {
	a, err := e.prepareAssociation(ctx, parentModel, parentID, field)
	if err != nil {
		return nil, err
	}

	if !a.isArray() {
		ref := a.reference()
		if isEmptyID(ref) {
			return []any{}, nil
		}

		if _, err := e.Destroy(ctx, a.childModel, ByID{ID: ref}, Options{}); err != nil {
			return nil, err
		}

		if err := e.saveParent(ctx, a, database.Record{database.SET: bson.M{field: nil}}); err != nil {
			return nil, err
		}
		return []any{ref}, nil
	}

	opts.FindOne = false
	matched, err := e.Find(ctx, a.childModel, orEmpty(c), opts)
	if err != nil {
		return nil, err
	}

	ids := matched.IDs()
	if len(ids) == 0 {
		return []any{}, nil
	}

	destroyed, err := e.Destroy(ctx, a.childModel, ByFilter{Where: Where{database.ID: bson.M{database.IN: ids}}}, Options{DefaultLimit: int64(len(ids))})
	if err != nil {
		return nil, err
	}

	removed := destroyed.IDs()
	if len(removed) == 0 {
		return []any{}, nil
	}

	if _, isList := database.AsList(a.reference()); isList {
		if err := e.saveParent(ctx, a, database.Record{database.PULL_ALL: bson.M{field: removed}}); err != nil {
			return nil, err
		}
	}

	e.logger.Debugf("unlinked %d %s records from %s %v", len(removed), a.childModel, parentModel, a.parentID())
	return removed, nil
}

// referenceFilter selects the children the parent currently references.
func referenceFilter(a association) Where {
	ref := a.reference()
	if ids, isList := database.AsList(ref); isList {
		return Where{database.ID: bson.M{database.IN: ids}}
	}
	return Where{database.ID: ref}
}

// mergeCriteria adds the caller's criteria to base. The caller's keys win.
func mergeCriteria(base Where, c Criteria) Where {
	merged := maps.Clone(base)
	switch v := c.(type) {
	case ByID:
		merged[database.ID] = v.ID
	case ByFilter:
		maps.Copy(merged, v.Where)
	}
	return merged
}

func isEmptyID(id any) bool {
	switch v := id.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case *string:
		return v == nil || *v == ""
	case bson.ObjectID:
		return v.IsZero()
	case *bson.ObjectID:
		return v == nil || v.IsZero()
	}
	return false
}

func isEmptyReference(ref any) bool {
	if list, isList := database.AsList(ref); isList {
		return len(list) == 0
	}
	return isEmptyID(ref)
}
