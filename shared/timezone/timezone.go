// Package timezone pins wall-clock rendering to the lot's configured IANA
// zone (APP_TIMEZONE). Instants are compared as instants everywhere; the zone
// only affects formatting and the scheduler's calendar.
package timezone

import (
	"parking/config"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	loadOnce    sync.Once
	appLocation = time.UTC
)

func load() {
	loadOnce.Do(func() {
		name := config.Get().App.Timezone
		if name == "" {
			log.Warn().Msg("no timezone configured, using UTC")

			return
		}

		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Error().Err(err).Str("timezone", name).Msg("failed to load timezone, using UTC")

			return
		}

		appLocation = loc
	})
}

// Location is the configured zone, UTC when unset or unknown.
func Location() *time.Location {
	load()

	return appLocation
}

// Now is the current instant in the application zone.
func Now() time.Time {
	return time.Now().In(Location())
}

func ToAppTime(t time.Time) time.Time {
	return t.In(Location())
}

func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}

// Clock yields the current instant. Services take a Clock so time-driven
// transitions can be exercised deterministically.
type Clock func() time.Time

// NewClock returns the application clock.
func NewClock() Clock {
	return Now
}
