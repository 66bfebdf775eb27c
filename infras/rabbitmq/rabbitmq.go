package rabbitmq

//go:generate go run go.uber.org/mock/mockgen -source=./rabbitmq.go -destination=./mocks/rabbitmq_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"parking/config"
	"parking/infras/otel"
	"parking/shared/constant"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	exchangeKind   = "topic"
	dialAttempts   = 5
	dialRetryDelay = time.Second
)

// Publisher sends JSON events to the configured topic exchange.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload any) error
	Close() error
}

type publisherImpl struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
	otel     otel.Otel
}

// New dials the broker and declares the exchange. An empty URL yields a
// publisher that only logs, so the engine can run without a broker.
func New(cfg *config.Config, otl otel.Otel) Publisher {
	if cfg.RabbitMQ.URL == "" {
		log.Warn().Msg("No RabbitMQ URL configured, lifecycle events will only be logged")

		return logPublisher{}
	}

	pub := &publisherImpl{
		url:      cfg.RabbitMQ.URL,
		exchange: cfg.RabbitMQ.Exchange,
		otel:     otl,
	}

	if err := pub.connect(); err != nil {
		log.Error().Err(err).Msg("Failed to connect to RabbitMQ, will retry on publish")
	}

	return pub
}

func (p *publisherImpl) connect() error {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(dialRetryDelay), dialAttempts)

	return backoff.RetryNotify(func() error { //nolint:wrapcheck
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return fmt.Errorf("dial rabbitmq: %w", err)
		}

		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()

			return fmt.Errorf("open channel: %w", err)
		}

		if err := ch.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()

			return fmt.Errorf("declare exchange: %w", err)
		}

		p.conn = conn
		p.ch = ch

		log.Info().Str("exchange", p.exchange).Msg("Connected to RabbitMQ")

		return nil
	}, policy, func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("retryIn", next).Msg("RabbitMQ not reachable yet")
	})
}

func (p *publisherImpl) PublishJSON(ctx context.Context, routingKey string, payload any) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".PublishJSON")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("routing_key", routingKey)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err = p.connect(); err != nil {
			return fmt.Errorf("failed to reconnect to rabbitmq: %w", err)
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		log.Error().Err(err).Str("routingKey", routingKey).Msg("failed to publish event")

		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *publisherImpl) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}

	if p.conn != nil {
		return p.conn.Close() //nolint:wrapcheck
	}

	return nil
}

type logPublisher struct{}

func (logPublisher) PublishJSON(_ context.Context, routingKey string, payload any) error {
	log.Info().Str("routingKey", routingKey).Interface("payload", payload).Msg("lifecycle event")

	return nil
}

func (logPublisher) Close() error {
	return nil
}
