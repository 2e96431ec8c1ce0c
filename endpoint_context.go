package rest

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xompass/vsaas-dal/lbq"
)

type EndpointContext struct {
	App          *RestApp
	EchoCtx      echo.Context
	Endpoint     *Endpoint
	ParsedBody   any
	ParsedQuery  map[string]any
	ParsedPath   map[string]any
	ParsedHeader map[string]any
	IpAddress    string
}

func (eCtx *EndpointContext) Context() context.Context {
	if eCtx.EchoCtx == nil {
		return context.Background()
	}
	return eCtx.EchoCtx.Request().Context()
}

// GetFilterParam retrieves the filter parameter from either the query or header.
func (eCtx *EndpointContext) GetFilterParam() *lbq.Filter {
	if filter, ok := eCtx.ParsedQuery["filter"].(*lbq.Filter); ok {
		return filter
	}

	if filter, ok := eCtx.ParsedHeader["filter"].(*lbq.Filter); ok {
		return filter
	}

	return nil
}

// GetWhereParam retrieves the where parameter from either the query or header.
func (eCtx *EndpointContext) GetWhereParam() lbq.Where {
	if where, ok := eCtx.ParsedQuery["where"].(lbq.Where); ok {
		return where
	}

	if where, ok := eCtx.ParsedHeader["where"].(lbq.Where); ok {
		return where
	}

	return nil
}

func (eCtx *EndpointContext) PathParam(name string) string {
	value, _ := eCtx.ParsedPath[name].(string)
	return value
}

// JSON sends a JSON response
func (ctx *EndpointContext) JSON(response any, statusCode ...int) error {
	status := http.StatusOK
	if len(statusCode) > 0 {
		status = statusCode[0]
	}

	return ctx.EchoCtx.JSON(status, response)
}

// NoContent sends a 204 No Content response
func (ctx *EndpointContext) NoContent() error {
	return ctx.EchoCtx.NoContent(http.StatusNoContent)
}
