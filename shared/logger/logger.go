// Package logger configures the global zerolog logger. Development runs log
// to a console writer; every other environment emits JSON lines tagged with
// the service name.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parking/config"
	"parking/shared/constant"
)

func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	log.Trace().Msg("Zerolog initialized.")
}

// SetLogLevel applies the configured level and switches to structured
// output outside development. Unknown or empty levels mean trace.
func SetLogLevel(cfg *config.Config) {
	SetOutput(cfg, os.Stdout)

	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil || cfg.Server.LogLevel == "" {
		level = zerolog.TraceLevel
	}

	zerolog.SetGlobalLevel(level)
	log.Debug().Str("loglevel", level.String()).Msg("log level set")
}

// SetOutput points the global logger at out.
func SetOutput(cfg *config.Config, out io.Writer) {
	if cfg.Server.Env == constant.ServerEnvDevelopment || cfg.Server.Env == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})

		return
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("service", cfg.App.Name).Logger()
}

func ErrorWithStack(err error) {
	log.Error().Str("stack", stack(err)).Err(err).Send()
}

// InvariantViolation reports a broken internal invariant at fatal severity
// without terminating the process. The operation that detected it must fail closed.
func InvariantViolation(err error, fields map[string]any) {
	log.WithLevel(zerolog.FatalLevel).
		Fields(fields).
		Str("stack", stack(err)).
		Err(err).
		Msg("invariant violation")
}

func stack(err error) string {
	return fmt.Sprintf("%+v", errors.WithStack(err))
}
