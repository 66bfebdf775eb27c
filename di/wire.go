//go:build wireinject
// +build wireinject

package di

import (
	"parking/config"
	"parking/infras/jwt"
	"parking/infras/kafka"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/infras/rabbitmq"
	"parking/infras/redis"
	"parking/infras/s3"
	paymentConsumer "parking/internal/consumers/payment"
	"parking/internal/jobs"
	"parking/permissions"
	"parking/shared/cache"
	"parking/shared/locker"
	"parking/shared/timezone"
	"parking/transport/http"
	"parking/transport/http/middleware"
	"parking/transport/http/router"

	assignmentService "parking/internal/domains/assignment/service"
	bookingModel "parking/internal/domains/booking/model"
	bookingRepository "parking/internal/domains/booking/repository"
	bookingService "parking/internal/domains/booking/service"
	capacityService "parking/internal/domains/capacity/service"
	lotRepository "parking/internal/domains/lot/repository"
	organizationRepository "parking/internal/domains/organization/repository"
	paymentRepository "parking/internal/domains/payment/repository"
	"parking/internal/domains/penalty"
	qrService "parking/internal/domains/qr/service"
	verificationService "parking/internal/domains/verification/service"
	"parking/internal/domains/verification/token"
	watchmanRepository "parking/internal/domains/watchman/repository"
	watchmanService "parking/internal/domains/watchman/service"

	"github.com/google/wire"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	bookingHandler "parking/internal/handlers/booking"
	capacityHandler "parking/internal/handlers/capacity"
	healthHandler "parking/internal/handlers/health"
	paymentHandler "parking/internal/handlers/payment"
	verificationHandler "parking/internal/handlers/verification"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	postgres.NewTransactor,
	otel.NewTracerProvider,
	wire.Bind(new(trace.TracerProvider), new(*sdktrace.TracerProvider)),
	otel.New,
	otel.NewFlusher,
	redis.New,
	jwt.New,
	kafka.New,
	rabbitmq.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	locker.New,
	timezone.NewClock,
)

var capacityDomain = wire.NewSet(
	lotRepository.New,
	organizationRepository.New,
	capacityService.New,
	assignmentService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	paymentRepository.New,
	penalty.New,
	wire.Bind(new(bookingModel.PenaltyPolicy), new(penalty.Calculator)),
	wire.Struct(new(bookingService.Dependencies), "*"),
	bookingService.New,
)

var verificationDomain = wire.NewSet(
	watchmanRepository.New,
	watchmanService.New,
	token.New,
	qrService.New,
	verificationService.New,
)

var domains = wire.NewSet(
	capacityDomain,
	bookingDomain,
	verificationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	healthHandler.New,
	bookingHandler.New,
	verificationHandler.New,
	capacityHandler.New,
	paymentHandler.New,
	router.New,
)

var background = wire.NewSet(
	paymentConsumer.New,
	jobs.New,
	provideBackground,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		background,
		http.New,
	)

	return &http.HTTP{}
}
