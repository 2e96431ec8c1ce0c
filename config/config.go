package config

import (
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/xompass/vsaas-dal/helpers"
)

const (
	ConnectorMongoDB = "mongodb"
	ConnectorMemory  = "memory"
)

// Config is the process configuration. Values come from the environment; a
// .env file in the working directory is loaded first when present.
type Config struct {
	AppName      string `validate:"required"`
	Port         uint16 `validate:"required"`
	LogLevel     string `validate:"oneof=debug info warn error"`
	Connector    string `validate:"oneof=mongodb memory"`
	ModelsFile   string `validate:"required"`
	DefaultLimit int64  `validate:"gte=0"`
	SanitizeHTML bool

	Mongo     MongoConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

type MongoConfig struct {
	URI      string `validate:"required_if=Enabled true"`
	Database string
	Enabled  bool
}

type RateLimitConfig struct {
	Enabled bool
	Max     int64         `validate:"required_if=Enabled true,gte=0"`
	Window  time.Duration `validate:"required_if=Enabled true"`
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	connector := strings.ToLower(helpers.GetEnv("CONNECTOR", ConnectorMongoDB))

	port := helpers.GetEnvInt("PORT", 3000)
	if port <= 0 || port > 65535 {
		return nil, errors.Errorf("invalid PORT %d", port)
	}

	cfg := &Config{
		AppName:      helpers.GetEnv("APP_NAME", "vsaas-dal"),
		Port:         uint16(port),
		LogLevel:     strings.ToLower(helpers.GetEnv("LOG_LEVEL", "info")),
		Connector:    connector,
		ModelsFile:   helpers.GetEnv("MODELS_FILE", "models.json"),
		DefaultLimit: helpers.GetEnvInt("DAL_DEFAULT_LIMIT", 0),
		SanitizeHTML: helpers.GetEnvBool("SANITIZE_HTML", true),
		Mongo: MongoConfig{
			URI:      helpers.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: helpers.GetEnv("MONGO_DATABASE", ""),
			Enabled:  connector == ConnectorMongoDB,
		},
		RateLimit: RateLimitConfig{
			Enabled: helpers.GetEnvBool("RATE_LIMIT_ENABLED", false),
			Max:     helpers.GetEnvInt("RATE_LIMIT_MAX", 100),
			Window:  helpers.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Redis: RedisConfig{
			Host:     helpers.GetEnv("REDIS_HOST", "localhost"),
			Port:     helpers.GetEnv("REDIS_PORT", "6379"),
			Password: helpers.GetEnv("REDIS_PASSWORD", ""),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.WrapPrefix(err, "invalid configuration", 0)
	}

	return cfg, nil
}
