package rest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xompass/vsaas-dal/http_errors"
	"github.com/xompass/vsaas-dal/lbq"
)

type ParamErrors []http_errors.ErrorResponse

func (pe ParamErrors) Error() string {
	var messages []string
	for _, err := range pe {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func parseAllParams(e *Endpoint, ec *EndpointContext) error {
	ec.ParsedQuery = make(map[string]any)
	ec.ParsedPath = make(map[string]any)
	ec.ParsedHeader = make(map[string]any)

	var paramErrors ParamErrors

	for _, param := range e.Accepts {
		val, err := parseParam(ec, param)
		if err != nil {
			var errResponse *http_errors.ErrorResponse
			if !errors.As(err, &errResponse) {
				errResponse = http_errors.BadRequestError("Invalid parameter", fmt.Sprintf("Parameter %s: %s", param.name, err.Error()))
			}

			paramErrors = append(paramErrors, *errResponse)
			continue
		}

		switch param.in {
		case InQuery:
			ec.ParsedQuery[param.name] = val
		case InPath:
			ec.ParsedPath[param.name] = val
		case InHeader:
			ec.ParsedHeader[param.name] = val
		}
	}

	if len(paramErrors) > 0 {
		return paramErrors
	}

	return nil
}

func parseParam(ctx *EndpointContext, param Param) (any, error) {
	if ctx == nil || ctx.EchoCtx == nil {
		return nil, http_errors.BadRequestError("Invalid context", "Endpoint context is required to get path parameters")
	}

	var raw string

	switch param.in {
	case InQuery:
		raw = ctx.EchoCtx.QueryParam(param.name)
	case InPath:
		raw = ctx.EchoCtx.Param(param.name)
	case InHeader:
		raw = ctx.EchoCtx.Request().Header.Get(param.name)
	}

	if param.required {
		if param.in == InQuery {
			if _, exists := ctx.EchoCtx.QueryParams()[param.name]; !exists {
				return nil, http_errors.BadRequestError("Missing parameter", fmt.Sprintf("Parameter %s is required", param.name))
			}
		} else if raw == "" {
			return nil, http_errors.BadRequestError("Missing parameter", fmt.Sprintf("Parameter %s is required", param.name))
		}
	}

	if param.validate != "" && raw != "" && ctx.App != nil {
		if err := ctx.App.ValidatorInstance.Var(raw, param.validate); err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", map[string]string{param.name: friendlyMessage(err)})
		}
	}

	if param.Parser != nil {
		val, err := param.Parser(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", fmt.Sprintf("Parameter %s is invalid: %s", param.name, err.Error()))
		}

		return val, nil
	}

	if raw == "" && param.in != InQuery {
		return nil, nil
	}

	if raw == "" && param.in == InQuery && param.paramType != string(QueryParamTypeBool) {
		return nil, nil
	}

	switch param.paramType {
	case string(PathParamTypeString):
		return raw, nil
	case string(PathParamTypeInt):
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", "Parameter "+param.name+" must be an integer")
		}

		return value, nil
	case string(PathParamTypeBool):
		if param.in == InQuery {
			// check for params like ?param, this must be equivalent to ?param=true
			if _, exists := ctx.EchoCtx.QueryParams()[param.name]; exists && raw == "" {
				return true, nil
			}
			if raw == "" {
				return false, nil
			}
		}

		value, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid parameter", "Parameter "+param.name+" must be a boolean")
		}
		return value, nil
	case string(QueryParamTypeFilter):
		filter, err := lbq.ParseFilter(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid filter", "Parameter "+param.name+" must be a valid filter: "+err.Error())
		}
		return filter, nil
	case string(QueryParamTypeWhere):
		where, err := lbq.ParseWhere(raw)
		if err != nil {
			return nil, http_errors.BadRequestError("Invalid where clause", "Parameter "+param.name+" must be a valid where clause: "+err.Error())
		}
		return where, nil
	default:
		return nil, http_errors.BadRequestError("Invalid parameter type", "Parameter "+param.name+" has an invalid type")
	}
}

func friendlyMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		if message := getErrorMessage(ve[0].Tag(), ve[0].Kind().String(), ve[0].Param()); message != "" {
			return message
		}
		return "This field is invalid"
	}
	return err.Error()
}

func getErrorMessage(tag string, kind string, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "max":
		if kind == "string" || kind == "slice" || kind == "array" {
			return "This field must have a maximum length of " + param
		}
		return "This field must be less than " + param
	case "min":
		if kind == "string" || kind == "slice" || kind == "array" {
			return "This field must have a minimum length of " + param
		}
		return "This field must be greater than " + param
	case "excludesall":
		return "This field must not contain any of: " + param
	case "printascii":
		return "This field must only contain printable characters"
	case "oneof":
		return "This field must be one of: " + param
	default:
		return ""
	}
}
