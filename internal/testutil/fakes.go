package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"parking/infras/kafka"
	"parking/shared/cache"
)

// Cache keeps JSON encoded values in memory, the way the redis cache stores them.
type Cache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewCache() *Cache {
	return &Cache{values: map[string][]byte{}}
}

func (c *Cache) Save(_ context.Context, key string, value any, _ int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = data

	return nil
}

func (c *Cache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	data, ok := c.values[key]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("failed to get cache value %s: %w", key, cache.Nil)
	}

	return json.Unmarshal(data, dest)
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.values, key)

	return nil
}

// Increment reports a fresh window every time.
func (c *Cache) Increment(_ context.Context, _ string, _ int) (int64, error) {
	return 1, nil
}

// Has reports whether key currently holds a value.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.values[key]

	return ok
}

// Published is one event seen by Publisher.
type Published struct {
	RoutingKey string
	Payload    any
}

// Publisher records lifecycle events instead of sending them to a broker.
type Publisher struct {
	mu     sync.Mutex
	events []Published
}

func (p *Publisher) PublishJSON(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, Published{RoutingKey: routingKey, Payload: payload})

	return nil
}

func (p *Publisher) Close() error {
	return nil
}

func (p *Publisher) RoutingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, len(p.events))
	for i, event := range p.events {
		keys[i] = event.RoutingKey
	}

	return keys
}

// Kafka records produced messages per topic.
type Kafka struct {
	mu       sync.Mutex
	messages map[string][]kafka.Message
}

func (k *Kafka) SendMessages(_ context.Context, topic string, messages ...kafka.Message) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.messages == nil {
		k.messages = map[string][]kafka.Message{}
	}

	k.messages[topic] = append(k.messages[topic], messages...)

	return nil
}

func (k *Kafka) Consume(ctx context.Context, _, _ string, _ kafka.Handler) {
	<-ctx.Done()
}

func (k *Kafka) Close() error {
	return nil
}

func (k *Kafka) Messages(topic string) []kafka.Message {
	k.mu.Lock()
	defer k.mu.Unlock()

	return append([]kafka.Message(nil), k.messages[topic]...)
}

// QR renders the token itself and stores nothing.
type QR struct{}

func (QR) Render(_ context.Context, token string) ([]byte, error) {
	return []byte(token), nil
}

func (QR) Publish(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (QR) Remove(_ context.Context, _ string) error {
	return nil
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
