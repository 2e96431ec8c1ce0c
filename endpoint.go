package rest

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xompass/vsaas-dal/http_errors"
)

type RateLimit struct {
	Max    int64
	Window time.Duration
	Key    string
}

type Param struct {
	in        ParamLocation
	name      string
	paramType string
	required  bool
	validate  string
	Parser    func(string) (any, error)
}

func NewQueryParam(name string, paramType QueryParamType, required ...bool) Param {
	requiredValue := false
	if len(required) > 0 {
		requiredValue = required[0]
	}
	return Param{
		in:        InQuery,
		name:      name,
		paramType: string(paramType),
		required:  requiredValue,
	}
}

func NewPathParam(name string, paramType PathParamType, required ...bool) Param {
	requiredValue := false
	if len(required) > 0 {
		requiredValue = required[0]
	}
	return Param{
		in:        InPath,
		name:      name,
		paramType: string(paramType),
		required:  requiredValue,
	}
}

func NewHeaderParam(name string, paramType HeaderParamType, required ...bool) Param {
	requiredValue := false
	if len(required) > 0 {
		requiredValue = required[0]
	}
	return Param{
		in:        InHeader,
		name:      name,
		paramType: string(paramType),
		required:  requiredValue,
	}
}

// Validate adds validator tags the raw value must satisfy, e.g. "max=64".
func (p Param) Validate(tags string) Param {
	p.validate = tags
	return p
}

type Endpoint struct {
	Name        string
	Method      EndpointMethod
	Path        string
	Handler     func(c *EndpointContext) error
	Disabled    bool                             // If true, the endpoint answers 404.
	ParseBody   bool                             // If true, the JSON body is decoded into ParsedBody.
	RateLimiter func(*EndpointContext) RateLimit // Function to get rate limit configuration for the endpoint.
	ActionType  ActionType                       // e.g., "create", "read", "update", "delete". Used for logging.
	app         *RestApp
	Accepts     []Param
}

func (ep *Endpoint) run(c echo.Context) error {
	if ep.Disabled {
		return http_errors.NotFoundError("Endpoint not found")
	}

	ctx := &EndpointContext{
		EchoCtx:   c,
		Endpoint:  ep,
		App:       ep.app,
		IpAddress: c.RealIP(),
	}

	err := checkRateLimit(ctx)
	if err != nil {
		return err
	}

	err = parseAllParams(ep, ctx)
	if err != nil {
		return err
	}

	err = parseBody(ep, ctx)
	if err != nil {
		return err
	}

	ep.app.Debugf("%s %s %s", ep.ActionType, ep.Name, c.Request().URL.Path)

	return ep.Handler(ctx)
}
