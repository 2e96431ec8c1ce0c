package rest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xompass/vsaas-dal/http_errors"
	"github.com/xompass/vsaas-dal/lbq"
)

func newParamContext(t *testing.T, target string, pathNames []string, pathValues []string) *EndpointContext {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames(pathNames...)
	c.SetParamValues(pathValues...)

	return &EndpointContext{
		EchoCtx: c,
		App:     &RestApp{ValidatorInstance: validator.New()},
	}
}

func TestParseAllParams(t *testing.T) {
	ec := newParamContext(t, "/Tag?limit=5&flag&filter="+url.QueryEscape(`{"limit":2}`), []string{"model"}, []string{"Tag"})
	ep := &Endpoint{Accepts: []Param{
		modelParam(),
		NewQueryParam("limit", QueryParamTypeInt),
		NewQueryParam("flag", QueryParamTypeBool),
		NewQueryParam("missing", QueryParamTypeBool),
		filterParam(),
		whereParam(),
	}}

	require.NoError(t, parseAllParams(ep, ec))
	assert.Equal(t, "Tag", ec.PathParam("model"))
	assert.Equal(t, 5, ec.ParsedQuery["limit"])
	assert.Equal(t, true, ec.ParsedQuery["flag"])
	assert.Equal(t, false, ec.ParsedQuery["missing"])
	assert.Equal(t, &lbq.Filter{Limit: 2}, ec.GetFilterParam())
	assert.Nil(t, ec.GetWhereParam())
}

func TestParseAllParamsCollectsErrors(t *testing.T) {
	ec := newParamContext(t, "/x?limit=abc&where=nope", []string{"model"}, []string{"a.b"})
	ep := &Endpoint{Accepts: []Param{
		modelParam(),
		NewQueryParam("limit", QueryParamTypeInt),
		whereParam(),
		NewQueryParam("required", QueryParamTypeString, true),
	}}

	err := parseAllParams(ep, ec)
	require.Error(t, err)

	var paramErrors ParamErrors
	require.ErrorAs(t, err, &paramErrors)
	assert.Len(t, paramErrors, 4)
	assert.Equal(t, map[string]string{"model": "This field must not contain any of: $."}, paramErrors[0].Details)
}

func TestParamParser(t *testing.T) {
	param := NewHeaderParam("X-Trace", HeaderParamTypeString)
	param.Parser = func(raw string) (any, error) {
		return "trace-" + raw, nil
	}

	ec := newParamContext(t, "/", nil, nil)
	ec.EchoCtx.Request().Header.Set("X-Trace", "1")

	value, err := parseParam(ec, param)
	require.NoError(t, err)
	assert.Equal(t, "trace-1", value)
}

func TestParseParamWithoutContext(t *testing.T) {
	_, err := parseParam(&EndpointContext{}, modelParam())

	var response *http_errors.ErrorResponse
	require.ErrorAs(t, err, &response)
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "This field must have a maximum length of 10", getErrorMessage("max", "string", "10"))
	assert.Equal(t, "This field must be less than 10", getErrorMessage("max", "int", "10"))
	assert.Equal(t, "This field is required", getErrorMessage("required", "string", ""))
	assert.Empty(t, getErrorMessage("email", "string", ""))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}
