package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"`
		LogLevel string `envconfig:"LOG_LEVEL"`
		Port     string `envconfig:"PORT"`
		Host     string `envconfig:"HOST"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"APP_NAME"`
		Timezone string `envconfig:"TIMEZONE"`
		CORS     struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			Enable           bool     `envconfig:"ENABLE"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool `envconfig:"ENABLE"`
			MaxRequests   int  `envconfig:"MAX_REQUESTS"`
			WindowSeconds int  `envconfig:"WINDOW_SECONDS"`
		} `envconfig:"RATE_LIMITER"`
		APIKey string `envconfig:"API_KEY"`
	} `envconfig:"APP"`

	Booking struct {
		MaxAdvanceDays      int `envconfig:"MAX_ADVANCE_DAYS"      default:"30"`
		PastGraceMinutes    int `envconfig:"PAST_GRACE_MINUTES"    default:"5"`
		CancelCutoffMinutes int `envconfig:"CANCEL_CUTOFF_MINUTES" default:"0"`
		Lock                struct {
			Driver     string `envconfig:"DRIVER"      default:"redis"`
			TTLMillis  int    `envconfig:"TTL_MILLIS"  default:"5000"`
			WaitMillis int    `envconfig:"WAIT_MILLIS" default:"3000"`
		} `envconfig:"LOCK"`
	} `envconfig:"BOOKING"`

	Penalty struct {
		GraceMinutes  int  `envconfig:"GRACE_MINUTES"  default:"0"`
		ExemptMembers bool `envconfig:"EXEMPT_MEMBERS" default:"false"`
	} `envconfig:"PENALTY"`

	QR struct {
		Secret    string `envconfig:"SECRET"`
		TTLHours  int    `envconfig:"TTL_HOURS" default:"24"`
		ImageSize int    `envconfig:"IMAGE_SIZE" default:"256"`
		Directory string `envconfig:"DIRECTORY" default:"qr"`
	} `envconfig:"QR"`

	Scheduler struct {
		Enable                   bool `envconfig:"ENABLE"`
		ActivationIntervalSecond int  `envconfig:"ACTIVATION_INTERVAL_SECONDS" default:"60"`
		ActivationBatchSize      int  `envconfig:"ACTIVATION_BATCH_SIZE"       default:"200"`
		ReconcileIntervalMinute  int  `envconfig:"RECONCILE_INTERVAL_MINUTES"  default:"15"`
	} `envconfig:"SCHEDULER"`

	Cache struct {
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret string `envconfig:"ACCESS_SECRET"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			MaxRetry       int          `envconfig:"MAX_RETRY"`
			RetryWaitTime  int          `envconfig:"RETRY_WAIT_TIME"`
			MigrationTable string       `envconfig:"MIGRATION_TABLE"`
			AutoMigrate    bool         `envconfig:"AUTO_MIGRATE"`
			Prefix         string       `envconfig:"PREFIX"`
			Read           PostgresNode `envconfig:"READ"`
			Write          PostgresNode `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Brokers       []string `envconfig:"BROKERS"`
		ConsumerGroup string   `envconfig:"CONSUMER_GROUP" default:"parking-engine"`
		SASL          struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
		Topics struct {
			PaymentResults  string `envconfig:"PAYMENT_RESULTS"  default:"payment.results"`
			PaymentRequests string `envconfig:"PAYMENT_REQUESTS" default:"payment.requests"`
		} `envconfig:"TOPICS"`
	} `envconfig:"KAFKA"`

	RabbitMQ struct {
		URL      string `envconfig:"URL"`
		Exchange string `envconfig:"EXCHANGE" default:"parking.events"`
	} `envconfig:"RABBITMQ"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
		S3 struct {
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			PublicDomain    string `envconfig:"PUBLIC_DOMAIN"`
			BucketName      string `envconfig:"BUCKET_NAME"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
		} `envconfig:"S3"`
	} `envconfig:"EXTERNAL"`
}

// PostgresNode is one side of the read/write split.
type PostgresNode struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Username string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME"`
	Timezone string `envconfig:"TIMEZONE"`
	SSLMode  string `envconfig:"SSL_MODE"`
}

// DSN renders a postgres:// URL for the node, with the database name
// prefixed and any extra query parameters appended.
func (n PostgresNode) DSN(prefix string, extra url.Values) string {
	query := url.Values{}
	query.Set("sslmode", n.SSLMode)

	if n.Timezone != "" {
		query.Set("timezone", n.Timezone)
	}

	for key, values := range extra {
		query[key] = values
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(n.Username, n.Password),
		Host:     net.JoinHostPort(n.Host, n.Port),
		Path:     "/" + prefix + n.Name,
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

// Validate reports settings the engine cannot run without.
func (c *Config) Validate() error {
	var missing []string

	if c.JWT.AccessSecret == "" {
		missing = append(missing, "JWT_ACCESS_SECRET")
	}

	if c.QR.Secret == "" {
		missing = append(missing, "QR_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}

	return nil
}

var ErrMissingSetting = errors.New("missing required setting")

var (
	conf     Config
	loadOnce sync.Once
)

// Load reads .env when present, then the process environment. A missing
// .env is normal in containers.
func Load() (*Config, error) {
	var cfg Config

	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file, using process environment")
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	return &cfg, nil
}

// Get returns the process-wide configuration, loading it on first use.
// Unparseable settings are fatal; missing secrets only warn so tooling such
// as the migrator can run without them.
func Get() *Config {
	loadOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}

		if err := cfg.Validate(); err != nil {
			log.Warn().Err(err).Msg("configuration incomplete")
		}

		conf = *cfg
	})

	return &conf
}
