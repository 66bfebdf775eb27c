// Package payment consumes payment gateway results from Kafka.
package payment

import (
	"context"
	"fmt"
	"net/http"
	"parking/config"
	"parking/infras/kafka"
	"parking/infras/otel"
	bookingService "parking/internal/domains/booking/service"
	"parking/internal/domains/payment/model/dto"
	"parking/shared/constant"
	"parking/shared/failure"
	"parking/shared/validator"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

type Consumer struct {
	kafka    kafka.Client
	bookings bookingService.Booking
	cfg      *config.Config
	otel     otel.Otel
}

func New(kafka kafka.Client, bookings bookingService.Booking, cfg *config.Config, otel otel.Otel) *Consumer {
	return &Consumer{
		kafka:    kafka,
		bookings: bookings,
		cfg:      cfg,
		otel:     otel,
	}
}

// Start blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Str("topic", c.cfg.Kafka.Topics.PaymentResults).Msg("payment result consumer started")

	c.kafka.Consume(ctx, c.cfg.Kafka.ConsumerGroup, c.cfg.Kafka.Topics.PaymentResults, c.Handle)
}

// Stop flushes the shared producer. The reader closes when Start's context
// is cancelled; the HTTP server has drained by the time Stop runs.
func (c *Consumer) Stop() error {
	return c.kafka.Close()
}

// Handle applies one payment result. Messages that can never succeed are
// acknowledged so the client does not retry them; only transient failures
// are returned.
func (c *Consumer) Handle(ctx context.Context, msg kafkaGo.Message) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".payment.Handle")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	result, err := kafka.Decode[dto.PaymentResult](msg)
	if err != nil {
		log.Error().Err(err).Str("key", string(msg.Key)).Msg("discarding undecodable payment result")

		return nil
	}

	if err := validator.ValidateStruct(&result); err != nil {
		log.Error().Err(err).Str("key", string(msg.Key)).Msg("discarding invalid payment result")

		return nil
	}

	scope.SetAttributes(map[string]any{
		"booking_id":     result.BookingID,
		"transaction_id": result.TransactionID,
	})

	if err := c.bookings.ApplyPaymentResult(ctx, result); err != nil {
		if failure.GetCode(err) < http.StatusInternalServerError {
			log.Warn().Err(err).Str("transactionID", result.TransactionID).Msg("discarding rejected payment result")

			return nil
		}

		return fmt.Errorf("failed to apply payment result: %w", err)
	}

	return nil
}
