package main

import (
	"github.com/rs/zerolog/log"

	"parking/config"
	"parking/di"
	_ "parking/docs"
	"parking/helper"
	"parking/shared/logger"
)

// @title						Parking Booking Engine API
// @version					1.0
// @description				Reservation, slot allocation and gate verification for organization parking lots.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @securityDefinitions.apikey	ApiKeyAuth
// @in							header
// @name						X-API-Key
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Run(cfg, "up"); err != nil {
			log.Fatal().Err(err).Msg("auto migration failed")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
