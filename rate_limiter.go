package rest

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xompass/vsaas-dal/http_errors"
)

func newRedisClient(opts RateLimiterOptions) *redis.Client {
	host := opts.RedisHost
	if host == "" {
		host = "localhost"
	}

	port := opts.RedisPort
	if port == "" {
		port = "6379"
	}

	return redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: opts.RedisPassword,
		DB:       1, // Use database 1 for rate limiting
	})
}

// rateLimitFor returns the limit of the endpoint, or the application default
// when the endpoint does not define one.
func rateLimitFor(e *EndpointContext) (RateLimit, bool) {
	if e.Endpoint.RateLimiter != nil {
		return e.Endpoint.RateLimiter(e), true
	}

	defaults := e.App.options.RateLimiter
	if defaults.Max <= 0 || defaults.Window <= 0 {
		return RateLimit{}, false
	}

	return RateLimit{Max: defaults.Max, Window: defaults.Window}, true
}

// checkRateLimit counts the request in a fixed window keyed by endpoint and
// client IP.
func checkRateLimit(e *EndpointContext) error {
	if e.App == nil || e.App.redisClient == nil {
		return nil
	}

	rateLimit, ok := rateLimitFor(e)
	if !ok {
		return nil
	}

	key := e.Endpoint.Name + "_" + e.IpAddress
	if rateLimit.Key != "" {
		key = rateLimit.Key
	}

	ctx := e.Context()
	pipe := e.App.redisClient.TxPipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, rateLimit.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	count, err := incrCmd.Result()
	if err != nil {
		return err
	}

	if count > rateLimit.Max {
		e.App.Warnf("Rate limit exceeded for %s: %d requests", key, count)
		return http_errors.NewErrorResponseWithCode(429, RATE_LIMIT_EXCEEDED, fmt.Sprintf("Too many requests, limit is %d per %s", rateLimit.Max, rateLimit.Window))
	}

	return nil
}
