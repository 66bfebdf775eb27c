// Package helper drives schema migrations for the booking database.
package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"parking/config"
)

const migrationSource = "file://migrations/postgres"

var ErrUnknownAction = errors.New("unknown migration action")

// DatabaseURL is the write node DSN with the migrations table parameter.
func DatabaseURL(cfg *config.Config) string {
	pg := cfg.DB.Postgres

	extra := url.Values{}
	if pg.MigrationTable != "" {
		extra.Set("x-migrations-table", pg.MigrationTable)
	}

	return pg.Write.DSN(pg.Prefix, extra)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	return err
}

// Run applies action: up, down (one step), step-up, drop (all down),
// version, or force with a version argument.
func Run(cfg *config.Config, action string, args ...string) error {
	mig, err := migrate.New(migrationSource, DatabaseURL(cfg))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	defer mig.Close()

	switch action {
	case "up":
		err = ignoreNoChange(mig.Up())
	case "down":
		err = ignoreNoChange(mig.Steps(-1))
	case "step-up":
		err = ignoreNoChange(mig.Steps(1))
	case "drop":
		err = ignoreNoChange(mig.Down())
	case "force":
		if len(args) == 0 {
			return errors.New("force requires a version")
		}

		version, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], convErr)
		}

		err = mig.Force(version)
	case "version":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	if err != nil {
		return fmt.Errorf("failed to run migration %s: %w", action, err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	log.Info().Str("action", action).Uint("version", version).Bool("dirty", dirty).Msg("migration finished")

	return nil
}
