// Package response writes the JSON envelopes every handler replies with:
// {"data": ...}, {"message": ...} or {"error": ..., "kind": ...}.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"parking/shared/constant"
	"parking/shared/failure"
)

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

type Error struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type Message struct {
	Message string `json:"message"`
}

func WithMessage(writer http.ResponseWriter, code int, message string) {
	write(writer, code, Message{Message: message})
}

func WithJSON(writer http.ResponseWriter, code int, payload any) {
	write(writer, code, Data[any]{Data: &payload})
}

// WithError maps err to its failure status and kind. Non-failure errors are
// reported as a bare 500 so internals stay out of the body.
func WithError(writer http.ResponseWriter, err error) {
	code := failure.GetCode(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg("request failed")
	}

	write(writer, code, Error{Error: failure.GetMessage(err), Kind: failure.GetKind(err)})
}

// WithPNG sends a rendered booking QR code.
func WithPNG(writer http.ResponseWriter, image []byte) {
	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypePNG)
	writer.WriteHeader(http.StatusOK)

	if _, err := writer.Write(image); err != nil {
		log.Warn().Err(err).Msg("failed to write image response")
	}
}

func WithRequestLimitExceeded(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func write(writer http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		writer.WriteHeader(http.StatusInternalServerError)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err := writer.Write(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
