// Package handler is the serverless entry point. It serves the HTTP API
// only; the payment consumer and the expiry jobs need the long-running
// binary in cmd/app.
package handler

import (
	"net/http"
	"sync"

	"parking/config"
	"parking/di"
	"parking/shared/logger"
	parkingHttp "parking/transport/http"
)

var (
	once   sync.Once
	server *parkingHttp.HTTP
)

func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		logger.InitLogger()
		logger.SetLogLevel(config.Get())

		server = di.InitializeService()
	})

	r.RequestURI = r.URL.String()
	server.ServeHTTP(w, r)
}
