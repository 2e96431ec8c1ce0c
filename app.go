package rest

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"github.com/xompass/vsaas-dal/dataaccess"
	"github.com/xompass/vsaas-dal/database"
)

type LogLevel uint8

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var LogLevelLabels = map[LogLevel]string{
	LogLevelDebug: "DEBUG",
	LogLevelInfo:  "INFO",
	LogLevelWarn:  "WARN",
	LogLevelError: "ERROR",
}

var gommonLevels = map[LogLevel]log.Lvl{
	LogLevelDebug: log.DEBUG,
	LogLevelInfo:  log.INFO,
	LogLevelWarn:  log.WARN,
	LogLevelError: log.ERROR,
}

// ParseLogLevel maps a level name such as "debug" to a LogLevel. Unknown
// names map to LogLevelInfo.
func ParseLogLevel(name string) LogLevel {
	for level, label := range LogLevelLabels {
		if strings.EqualFold(label, name) {
			return level
		}
	}
	return LogLevelInfo
}

type RateLimiterOptions struct {
	Max           int64
	Window        time.Duration
	RedisHost     string
	RedisPort     string
	RedisPassword string
}

type RestAppOptions struct {
	Name       string
	Port       uint16
	Datasource *database.Datasource
	LogLevel   LogLevel

	// DefaultLimit caps unbounded multi-record reads and updates.
	DefaultLimit int64

	// SanitizeHTML strips unsafe markup from every string of a request body.
	SanitizeHTML bool

	EnableRateLimiter bool
	RateLimiter       RateLimiterOptions
}

type RestApp struct {
	EchoApp           *echo.Echo
	Datasource        *database.Datasource
	Engine            *dataaccess.Engine
	redisClient       *redis.Client
	options           RestAppOptions
	ValidatorInstance *validator.Validate
	logger            *log.Logger
}

func (receiver *RestApp) Debugf(format string, args ...any) {
	receiver.log(LogLevelDebug, format, args...)
}

func (receiver *RestApp) Infof(format string, args ...any) {
	receiver.log(LogLevelInfo, format, args...)
}

func (receiver *RestApp) Warnf(format string, args ...any) {
	receiver.log(LogLevelWarn, format, args...)
}

func (receiver *RestApp) Errorf(format string, args ...any) {
	receiver.log(LogLevelError, format, args...)
}

func (receiver *RestApp) log(level LogLevel, format string, args ...any) {
	if receiver == nil || receiver.logger == nil || receiver.options.LogLevel > level {
		return
	}

	switch level {
	case LogLevelDebug:
		receiver.logger.Debugf(format, args...)
	case LogLevelInfo:
		receiver.logger.Infof(format, args...)
	case LogLevelWarn:
		receiver.logger.Warnf(format, args...)
	default:
		receiver.logger.Errorf(format, args...)
	}
}

func NewRestApp(appOptions RestAppOptions) *RestApp {
	e := NewEchoApp()

	validate := validator.New()

	// Set the validation tag name to "json" to match the JSON struct tags
	// When an error occurs, the field name will be derived from the JSON tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		parts := strings.SplitN(fld.Tag.Get("json"), ",", 2)
		if len(parts) == 0 {
			return fld.Name
		}
		name := parts[0]
		if name == "-" {
			return ""
		}
		return name
	})

	name := appOptions.Name
	if name == "" {
		name = "rest"
	}

	logger := log.New(name)
	logger.SetLevel(gommonLevels[appOptions.LogLevel])
	e.Logger = logger

	app := &RestApp{
		EchoApp:           e,
		Datasource:        appOptions.Datasource,
		options:           appOptions,
		ValidatorInstance: validate,
		logger:            logger,
	}

	app.Engine = dataaccess.NewEngine(
		appOptions.Datasource,
		dataaccess.WithLogger(app),
		dataaccess.WithDefaultLimit(appOptions.DefaultLimit),
	)

	if appOptions.EnableRateLimiter {
		app.redisClient = newRedisClient(appOptions.RateLimiter)
	}

	e.HTTPErrorHandler = app.httpErrorHandler

	return app
}

func (receiver *RestApp) Destroy() error {
	if receiver == nil {
		return nil
	}
	if receiver.Datasource != nil {
		receiver.Datasource.Destroy()
	}

	if receiver.redisClient != nil {
		return receiver.redisClient.Close()
	}

	return nil
}

func (receiver *RestApp) Start() error {
	receiver.Infof("%s listening on port %d", receiver.options.Name, receiver.options.Port)
	return receiver.EchoApp.Start(fmt.Sprint(":", receiver.options.Port))
}

func (receiver *RestApp) Group(path string, m ...echo.MiddlewareFunc) *echo.Group {
	g := receiver.EchoApp.Group(path)
	for _, handler := range m {
		g.Use(handler)
	}
	return g
}

func (receiver *RestApp) RegisterEndpoint(ep *Endpoint, r *echo.Group) {
	if ep == nil {
		return
	}

	var executor func(path string, handler echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	switch ep.Method {
	case MethodGET:
		executor = r.GET
	case MethodHEAD:
		executor = r.HEAD
	case MethodPOST:
		executor = r.POST
	case MethodPUT:
		executor = r.PUT
	case MethodPATCH:
		executor = r.PATCH
	case MethodDELETE:
		executor = r.DELETE
	}

	if executor == nil {
		receiver.logger.Fatalf("Unsupported HTTP method %s for endpoint %s", ep.Method, ep.Name)
		return
	}

	ep.app = receiver
	executor(ep.Path, ep.run)
}

func (receiver *RestApp) RegisterEndpoints(endpoints []*Endpoint, r *echo.Group) {
	for _, ep := range endpoints {
		if ep == nil {
			continue
		}
		receiver.RegisterEndpoint(ep, r)
	}
}
