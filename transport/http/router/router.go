package router

import (
	"net/http"
	"parking/config"
	"parking/internal/handlers/booking"
	"parking/internal/handlers/capacity"
	"parking/internal/handlers/health"
	"parking/internal/handlers/payment"
	"parking/internal/handlers/verification"
	"parking/shared/constant"
	"parking/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type DomainHandlers struct {
	Health       health.Handler
	Booking      booking.Handler
	Verification verification.Handler
	Capacity     capacity.Handler
	Payment      payment.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	App            middleware.AppMiddleware
	AuthRole       middleware.AuthRole
	Config         *config.Config
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Use(chiMiddleware.Recoverer)
	router.Use(r.App.RequestID)
	router.Use(r.App.Tracing)
	router.Use(r.cors())

	r.DomainHandlers.Health.Router(router)

	if r.Config.Server.Env != constant.ServerEnvProduction {
		router.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.App.RateLimit())
		routerGroup.Use(r.AuthRole.APIKey)
		routerGroup.Use(r.AuthRole.Auth)
		routerGroup.Use(r.AuthRole.RBAC)

		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Verification.Router(routerGroup)
		r.DomainHandlers.Capacity.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)
	})
}

func (r *Router) cors() func(http.Handler) http.Handler {
	corsConfig := r.Config.App.CORS
	if !corsConfig.Enable {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   corsConfig.AllowedOrigins,
		AllowedMethods:   corsConfig.AllowedMethods,
		AllowedHeaders:   corsConfig.AllowedHeaders,
		AllowCredentials: corsConfig.AllowCredentials,
		MaxAge:           corsConfig.MaxAgeSeconds,
	})
}

func New(domainHandlers DomainHandlers, app middleware.AppMiddleware, authRole middleware.AuthRole, cfg *config.Config) Router {
	return Router{
		DomainHandlers: domainHandlers,
		App:            app,
		AuthRole:       authRole,
		Config:         cfg,
	}
}
