package di

import (
	"parking/infras/otel"
	paymentConsumer "parking/internal/consumers/payment"
	"parking/internal/jobs"
	"parking/transport/http"
)

// provideBackground lists the tasks that live as long as the server. They
// stop in order, so the trace flusher goes last.
func provideBackground(consumer *paymentConsumer.Consumer, jobs *jobs.Jobs, flusher *otel.Flusher) []http.Background {
	return []http.Background{consumer, jobs, flusher}
}
