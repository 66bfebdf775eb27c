package redis

import (
	"context"
	"net"
	"parking/config"
	"time"

	"github.com/cenkalti/backoff"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	pingAttempts = 5
	pingInterval = 500 * time.Millisecond
)

// New connects to the primary Redis used for the read cache, rate limiting and lot locks.
func New(config *config.Config) *goRedis.Client {
	primary := config.Cache.Redis.Primary

	client := goRedis.NewClient(&goRedis.Options{
		Addr:     net.JoinHostPort(primary.Host, primary.Port),
		Password: primary.Password,
		DB:       primary.DB,
	})

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(pingInterval), pingAttempts)

	err := backoff.RetryNotify(func() error {
		return client.Ping(context.Background()).Err() //nolint:wrapcheck
	}, policy, func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("retryIn", next).Msg("Redis not reachable yet")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	log.Info().
		Int("db", primary.DB).
		Str("host", primary.Host).
		Str("port", primary.Port).
		Msg("Connected to Redis")

	return client
}
