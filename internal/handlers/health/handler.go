package health

import (
	"context"
	"net/http"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/shared/constant"
	"parking/transport/http/response"
	"time"

	"github.com/go-chi/chi/v5"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const checkTimeout = 2 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type Handler struct {
	checks map[string]Check
	otel   otel.Otel
}

func New(conn *postgres.Connection, redis *goRedis.Client, otel otel.Otel) Handler {
	return NewWithChecks(map[string]Check{
		"postgres": conn.Write.PingContext,
		"redis": func(ctx context.Context) error {
			return redis.Ping(ctx).Err()
		},
	}, otel)
}

func NewWithChecks(checks map[string]Check, otel otel.Otel) Handler {
	return Handler{
		checks: checks,
		otel:   otel,
	}
}

func (h *Handler) Router(r chi.Router) {
	r.Get("/health", h.Live)
	r.Get("/health/ready", h.Ready)
}

// Live reports that the process is serving.
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Message
// @Router /health [get]
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	response.WithMessage(w, http.StatusOK, "OK")
}

// Ready pings every dependency.
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Message
// @Failure 503 {object} response.Message
// @Router /health/ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, scope := h.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Ready")
	defer scope.End()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Str("dependency", name).Msg("readiness check failed")

			response.WithUnhealthy(w)

			return
		}
	}

	response.WithMessage(w, http.StatusOK, "OK")
}
