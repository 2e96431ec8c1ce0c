package rest

import (
	"net/http"
	"strconv"

	"github.com/xompass/vsaas-dal/dataaccess"
	"github.com/xompass/vsaas-dal/database"
	"github.com/xompass/vsaas-dal/http_errors"
	"github.com/xompass/vsaas-dal/lbq"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const nameTags = "max=128,excludesall=$."

func modelParam() Param {
	return NewPathParam("model", PathParamTypeString, true).Validate(nameTags)
}

func idParam() Param {
	return NewPathParam("id", PathParamTypeString, true).Validate("max=256")
}

func fieldParam() Param {
	return NewPathParam("field", PathParamTypeString, true).Validate(nameTags)
}

func filterParam() Param {
	return NewQueryParam("filter", QueryParamTypeFilter)
}

func whereParam() Param {
	return NewQueryParam("where", QueryParamTypeWhere)
}

// RegisterDataRoutes exposes every engine operation for every registered
// model under prefix. Existence checks are HEAD requests on the record path,
// so every field name stays available to the association routes.
func (receiver *RestApp) RegisterDataRoutes(prefix string) {
	group := receiver.Group(prefix)
	receiver.RegisterEndpoints(receiver.DataEndpoints(), group)
}

func (receiver *RestApp) DataEndpoints() []*Endpoint {
	return []*Endpoint{
		{
			Name:       "create",
			Method:     MethodPOST,
			Path:       "/:model",
			ActionType: ActionTypeCreate,
			ParseBody:  true,
			Accepts:    []Param{modelParam()},
			Handler:    receiver.handleCreate,
		},
		{
			Name:       "find",
			Method:     MethodGET,
			Path:       "/:model",
			ActionType: ActionTypeRead,
			Accepts:    []Param{modelParam(), filterParam()},
			Handler:    receiver.handleFind,
		},
		{
			Name:       "count",
			Method:     MethodGET,
			Path:       "/:model/count",
			ActionType: ActionTypeRead,
			Accepts:    []Param{modelParam(), whereParam()},
			Handler:    receiver.handleCount,
		},
		{
			Name:       "findById",
			Method:     MethodGET,
			Path:       "/:model/:id",
			ActionType: ActionTypeRead,
			Accepts:    []Param{modelParam(), idParam(), filterParam()},
			Handler:    receiver.handleFindByID,
		},
		{
			Name:       "exists",
			Method:     MethodHEAD,
			Path:       "/:model/:id",
			ActionType: ActionTypeRead,
			Accepts:    []Param{modelParam(), idParam()},
			Handler:    receiver.handleExists,
		},
		{
			Name:       "updateAll",
			Method:     MethodPATCH,
			Path:       "/:model",
			ActionType: ActionTypeUpdate,
			ParseBody:  true,
			Accepts:    []Param{modelParam(), whereParam()},
			Handler:    receiver.handleUpdateAll,
		},
		{
			Name:       "updateById",
			Method:     MethodPATCH,
			Path:       "/:model/:id",
			ActionType: ActionTypeUpdate,
			ParseBody:  true,
			Accepts:    []Param{modelParam(), idParam()},
			Handler:    receiver.handleUpdateByID,
		},
		{
			Name:       "destroyAll",
			Method:     MethodDELETE,
			Path:       "/:model",
			ActionType: ActionTypeDelete,
			Accepts:    []Param{modelParam(), whereParam()},
			Handler:    receiver.handleDestroyAll,
		},
		{
			Name:       "destroyById",
			Method:     MethodDELETE,
			Path:       "/:model/:id",
			ActionType: ActionTypeDelete,
			Accepts:    []Param{modelParam(), idParam()},
			Handler:    receiver.handleDestroyByID,
		},
		{
			Name:       "createAssociation",
			Method:     MethodPOST,
			Path:       "/:model/:id/:field",
			ActionType: ActionTypeCreate,
			ParseBody:  true,
			Accepts:    []Param{modelParam(), idParam(), fieldParam(), filterParam()},
			Handler:    receiver.handleCreateAssociation,
		},
		{
			Name:       "findAssociation",
			Method:     MethodGET,
			Path:       "/:model/:id/:field",
			ActionType: ActionTypeRead,
			Accepts:    []Param{modelParam(), idParam(), fieldParam(), filterParam()},
			Handler:    receiver.handleFindAssociation,
		},
		{
			Name:       "updateAssociation",
			Method:     MethodPATCH,
			Path:       "/:model/:id/:field",
			ActionType: ActionTypeUpdate,
			ParseBody:  true,
			Accepts:    []Param{modelParam(), idParam(), fieldParam(), whereParam()},
			Handler:    receiver.handleUpdateAssociation,
		},
		{
			Name:       "destroyAssociation",
			Method:     MethodDELETE,
			Path:       "/:model/:id/:field",
			ActionType: ActionTypeDelete,
			Accepts:    []Param{modelParam(), idParam(), fieldParam(), whereParam()},
			Handler:    receiver.handleDestroyAssociation,
		},
	}
}

// parseID converts a path id to the primary key type of the model.
func (receiver *RestApp) parseID(modelName string, raw string) any {
	handle, err := receiver.Datasource.Resolve(modelName)
	if err != nil {
		return raw
	}

	switch handle.Schema().IDType {
	case database.DtObjectID:
		if oid, err := bson.ObjectIDFromHex(raw); err == nil {
			return oid
		}
	case database.DtInt:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
	case database.DtFloat:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

func filterOptions(filter *lbq.Filter) dataaccess.Options {
	if filter == nil {
		return dataaccess.Options{}
	}
	return dataaccess.Options{
		DefaultLimit: int64(filter.Limit),
		Fields:       map[string]bool(filter.Fields),
	}
}

func filterCriteria(filter *lbq.Filter) dataaccess.Criteria {
	if filter == nil || filter.Where == nil {
		return dataaccess.ByFilter{Where: dataaccess.Where{}}
	}
	return dataaccess.ByFilter{Where: dataaccess.Where(filter.Where)}
}

func whereCriteria(where lbq.Where) dataaccess.Criteria {
	if where == nil {
		return dataaccess.ByFilter{Where: dataaccess.Where{}}
	}
	return dataaccess.ByFilter{Where: dataaccess.Where(where)}
}

func recordNotFound(model string) error {
	return http_errors.NotFoundErrorWithCode(RECORD_NOT_FOUND, model+" not found")
}

func (receiver *RestApp) handleCreate(c *EndpointContext) error {
	model := c.PathParam("model")
	records, isList, err := c.BodyRecords()
	if err != nil {
		return err
	}

	if isList {
		created, err := receiver.Engine.CreateMany(c.Context(), model, records)
		if err != nil {
			return err
		}
		return c.JSON(created)
	}

	created, err := receiver.Engine.Create(c.Context(), model, records[0])
	if err != nil {
		return err
	}
	return c.JSON(created)
}

func (receiver *RestApp) handleFind(c *EndpointContext) error {
	filter := c.GetFilterParam()
	result, err := receiver.Engine.Find(c.Context(), c.PathParam("model"), filterCriteria(filter), filterOptions(filter))
	if err != nil {
		return err
	}
	return c.JSON(result.Value())
}

func (receiver *RestApp) handleCount(c *EndpointContext) error {
	count, err := receiver.Engine.Count(c.Context(), c.PathParam("model"), whereCriteria(c.GetWhereParam()))
	if err != nil {
		return err
	}
	return c.JSON(Count{Count: count})
}

func (receiver *RestApp) handleFindByID(c *EndpointContext) error {
	model := c.PathParam("model")
	opts := filterOptions(c.GetFilterParam())
	opts.DefaultLimit = 0

	result, err := receiver.Engine.Find(c.Context(), model, dataaccess.ByID{ID: receiver.parseID(model, c.PathParam("id"))}, opts)
	if err != nil {
		return err
	}
	if result.Record == nil {
		return recordNotFound(model)
	}
	return c.JSON(result.Record)
}

func (receiver *RestApp) handleExists(c *EndpointContext) error {
	model := c.PathParam("model")
	exists, err := receiver.Engine.Exists(c.Context(), model, receiver.parseID(model, c.PathParam("id")))
	if err != nil {
		return err
	}
	if !exists {
		return recordNotFound(model)
	}
	return c.EchoCtx.NoContent(http.StatusOK)
}

func (receiver *RestApp) handleUpdateAll(c *EndpointContext) error {
	values, err := c.BodyRecord()
	if err != nil {
		return err
	}

	result, err := receiver.Engine.Update(c.Context(), c.PathParam("model"), whereCriteria(c.GetWhereParam()), values, dataaccess.Options{})
	if err != nil {
		return err
	}
	return c.JSON(result.Value())
}

func (receiver *RestApp) handleUpdateByID(c *EndpointContext) error {
	model := c.PathParam("model")
	values, err := c.BodyRecord()
	if err != nil {
		return err
	}

	result, err := receiver.Engine.Update(c.Context(), model, dataaccess.ByID{ID: receiver.parseID(model, c.PathParam("id"))}, values, dataaccess.Options{})
	if err != nil {
		return err
	}
	if result.Record == nil {
		return recordNotFound(model)
	}
	return c.JSON(result.Record)
}

func (receiver *RestApp) handleDestroyAll(c *EndpointContext) error {
	result, err := receiver.Engine.Destroy(c.Context(), c.PathParam("model"), whereCriteria(c.GetWhereParam()), dataaccess.Options{})
	if err != nil {
		return err
	}
	return c.JSON(result.Value())
}

func (receiver *RestApp) handleDestroyByID(c *EndpointContext) error {
	model := c.PathParam("model")
	result, err := receiver.Engine.Destroy(c.Context(), model, dataaccess.ByID{ID: receiver.parseID(model, c.PathParam("id"))}, dataaccess.Options{})
	if err != nil {
		return err
	}
	if result.Record == nil {
		return recordNotFound(model)
	}
	return c.JSON(result.Record)
}

func (receiver *RestApp) handleCreateAssociation(c *EndpointContext) error {
	model := c.PathParam("model")
	values, err := c.BodyRecord()
	if err != nil {
		return err
	}

	child, err := receiver.Engine.CreateAssociation(c.Context(), model, receiver.parseID(model, c.PathParam("id")), c.PathParam("field"), values, filterOptions(c.GetFilterParam()))
	if err != nil {
		return err
	}
	return c.JSON(child)
}

func (receiver *RestApp) handleFindAssociation(c *EndpointContext) error {
	model := c.PathParam("model")
	filter := c.GetFilterParam()

	result, err := receiver.Engine.FindAssociation(c.Context(), model, receiver.parseID(model, c.PathParam("id")), c.PathParam("field"), filterCriteria(filter), filterOptions(filter))
	if err != nil {
		return err
	}
	return c.JSON(result.Value())
}

func (receiver *RestApp) handleUpdateAssociation(c *EndpointContext) error {
	model := c.PathParam("model")
	values, err := c.BodyRecord()
	if err != nil {
		return err
	}

	result, err := receiver.Engine.UpdateAssociation(c.Context(), model, receiver.parseID(model, c.PathParam("id")), c.PathParam("field"), whereCriteria(c.GetWhereParam()), values, dataaccess.Options{})
	if err != nil {
		return err
	}
	return c.JSON(result.Value())
}

func (receiver *RestApp) handleDestroyAssociation(c *EndpointContext) error {
	model := c.PathParam("model")
	removed, err := receiver.Engine.DestroyAssociation(c.Context(), model, receiver.parseID(model, c.PathParam("id")), c.PathParam("field"), whereCriteria(c.GetWhereParam()), dataaccess.Options{})
	if err != nil {
		return err
	}
	return c.JSON(Removed{Count: len(removed), IDs: removed})
}
