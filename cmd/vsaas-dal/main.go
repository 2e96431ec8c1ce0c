package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	rest "github.com/xompass/vsaas-dal"
	"github.com/xompass/vsaas-dal/config"
	"github.com/xompass/vsaas-dal/database"
)

func newConnector(cfg *config.Config) (database.Connector, error) {
	if cfg.Connector == config.ConnectorMemory {
		return database.NewMemoryConnector(config.ConnectorMemory), nil
	}

	opts, err := database.MongoConnectorOptsFromURI(config.ConnectorMongoDB, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	return database.NewMongoConnector(opts)
}

func newDatasource(cfg *config.Config) (*database.Datasource, error) {
	connector, err := newConnector(cfg)
	if err != nil {
		return nil, err
	}

	ds, err := database.NewDatasource(connector)
	if err != nil {
		return nil, err
	}

	defs, err := database.LoadSchemaFile(cfg.ModelsFile)
	if err != nil {
		return nil, err
	}

	if err := ds.RegisterModels(defs...); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ds.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	return ds, nil
}

func main() {
	logger := log.New("vsaas-dal")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}

	ds, err := newDatasource(cfg)
	if err != nil {
		logger.Fatal(err)
	}

	app := rest.NewRestApp(rest.RestAppOptions{
		Name:              cfg.AppName,
		Port:              cfg.Port,
		Datasource:        ds,
		LogLevel:          rest.ParseLogLevel(cfg.LogLevel),
		DefaultLimit:      cfg.DefaultLimit,
		SanitizeHTML:      cfg.SanitizeHTML,
		EnableRateLimiter: cfg.RateLimit.Enabled,
		RateLimiter: rest.RateLimiterOptions{
			Max:           cfg.RateLimit.Max,
			Window:        cfg.RateLimit.Window,
			RedisHost:     cfg.Redis.Host,
			RedisPort:     cfg.Redis.Port,
			RedisPassword: cfg.Redis.Password,
		},
	})
	defer func() {
		if err := app.Destroy(); err != nil {
			logger.Error(err)
		}
	}()

	app.RegisterDataRoutes("/api")

	go func() {
		if err := app.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.EchoApp.Shutdown(ctx); err != nil {
		logger.Error(err)
	}
}
