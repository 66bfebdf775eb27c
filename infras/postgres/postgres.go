// Package postgres opens the read and write connection pools. Bookings and
// capacity changes go to the write node; list queries may use the replica.
package postgres

//nolint:revive
import (
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"parking/config"
)

const (
	maxIdleConnections      = 10
	maxOpenConnections      = 20
	connectionMaxLifetime   = 30 * time.Minute
	defaultMaxRetry         = 5
	defaultRetryWaitSeconds = 2
)

type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(cfg *config.Config) *Connection {
	pg := cfg.DB.Postgres

	return &Connection{
		Read:  connect("read", pg.Read, cfg),
		Write: connect("write", pg.Write, cfg),
	}
}

func retryPolicy(cfg *config.Config) backoff.BackOff {
	maxRetry := cfg.DB.Postgres.MaxRetry
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}

	wait := cfg.DB.Postgres.RetryWaitTime
	if wait <= 0 {
		wait = defaultRetryWaitSeconds
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(wait) * time.Second
	policy.MaxElapsedTime = 0

	return backoff.WithMaxRetries(policy, uint64(maxRetry-1))
}

// connect retries with exponential backoff. It returns nil once the retries
// are spent so the health check can report the outage.
func connect(name string, node config.PostgresNode, cfg *config.Config) *sqlx.DB {
	logger := log.With().Str("name", name).Str("host", node.Host).Str("port", node.Port).Str("dbName", cfg.DB.Postgres.Prefix+node.Name).Logger()
	dsn := node.DSN(cfg.DB.Postgres.Prefix, nil)

	var (
		db      *sqlx.DB
		attempt int
	)

	err := backoff.RetryNotify(func() error {
		attempt++

		conn, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return err //nolint:wrapcheck
		}

		db = conn

		return nil
	}, retryPolicy(cfg), func(err error, next time.Duration) {
		logger.Error().Err(err).Int("attempt", attempt).Dur("retryIn", next).Msg("Failed connecting to database, retrying")
	})
	if err != nil {
		logger.Error().Err(err).Msg("Giving up connecting to database")

		return nil
	}

	db.SetMaxIdleConns(maxIdleConnections)
	db.SetMaxOpenConns(maxOpenConnections)
	db.SetConnMaxLifetime(connectionMaxLifetime)

	logger.Info().Msg("Connected to database")

	return db
}
