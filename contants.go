package rest

type EndpointMethod string

const (
	MethodHEAD   EndpointMethod = "Head"
	MethodGET    EndpointMethod = "Get"
	MethodPOST   EndpointMethod = "Post"
	MethodPUT    EndpointMethod = "Put"
	MethodPATCH  EndpointMethod = "Patch"
	MethodDELETE EndpointMethod = "Delete"
)

type ParamLocation string

const (
	InQuery  ParamLocation = "query"
	InPath   ParamLocation = "path"
	InHeader ParamLocation = "header"
)

type PathParamType string

const (
	PathParamTypeString PathParamType = "string"
	PathParamTypeInt    PathParamType = "int"
	PathParamTypeBool   PathParamType = "bool"
)

type QueryParamType string

const (
	QueryParamTypeString QueryParamType = "string"
	QueryParamTypeInt    QueryParamType = "int"
	QueryParamTypeBool   QueryParamType = "bool"
	QueryParamTypeFilter QueryParamType = "filter"
	QueryParamTypeWhere  QueryParamType = "where"
)

type HeaderParamType string

const (
	HeaderParamTypeString HeaderParamType = "string"
	HeaderParamTypeFilter HeaderParamType = "filter"
	HeaderParamTypeWhere  HeaderParamType = "where"
)

type ActionType string

const (
	ActionTypeRead   ActionType = "read"
	ActionTypeCreate ActionType = "create"
	ActionTypeUpdate ActionType = "update"
	ActionTypeDelete ActionType = "delete"
)
