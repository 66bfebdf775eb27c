package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"parking/infras/otel"
)

func TestScope(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "booking.Create")
	scope := otel.NewScope(span)

	scope.SetAttributes(map[string]any{
		"lot_id":      "lot-a",
		"slot_number": 3,
		"paid":        true,
		"grace":       15 * time.Minute,
	})
	scope.TraceIfError(nil)
	scope.TraceIfError(errors.New("parking lot is full"))
	scope.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}

	assert.Equal(t, "lot-a", attrs["lot_id"].AsString())
	assert.Equal(t, int64(3), attrs["slot_number"].AsInt64())
	assert.True(t, attrs["paid"].AsBool())
	assert.Equal(t, "15m0s", attrs["grace"].AsString())

	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "parking lot is full", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}
