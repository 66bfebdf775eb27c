package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"parking/config"
	"parking/helper"
	"parking/shared/logger"
)

func main() {
	logger.InitLogger()

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: migrate up|down|step-up|drop|version|force <version>")
	}

	cfg := config.Get()
	logger.SetLogLevel(cfg)

	if err := helper.Run(cfg, os.Args[1], os.Args[2:]...); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}
