// Package mocks provides tracing doubles for unit tests.
package mocks

import (
	"go.opentelemetry.io/otel/trace/noop"

	"parking/infras/otel"
)

// NewOtel returns a tracer whose spans are dropped.
func NewOtel() otel.Otel {
	return otel.New(noop.NewTracerProvider())
}
