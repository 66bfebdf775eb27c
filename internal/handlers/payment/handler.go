package payment

import (
	"net/http"
	"parking/infras/otel"
	bookingService "parking/internal/domains/booking/service"
	"parking/internal/domains/payment/model/dto"
	"parking/shared/constant"
	"parking/shared/validator"
	"parking/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	bookings bookingService.Booking
	otel     otel.Otel
}

func New(bookings bookingService.Booking, otel otel.Otel) Handler {
	return Handler{
		bookings: bookings,
		otel:     otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Post("/cash", handler.RecordCash)
		routerGroup.Post("/results", handler.PaymentResult)
	})
}

// RecordCash records cash collected at the gate.
// @Summary Record a cash payment
// @Description Settle everything a booking still owes with one cash payment. The amount must equal the outstanding charge.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.CashPaymentRequest true "Cash Payment Request"
// @Success 201 {object} response.Data[dto.PaymentResponse] "Cash recorded"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Nothing to settle"
// @Failure 500 {object} response.Error
// @Router /v1/payments/cash [post]
// @Security BearerAuth
func (handler *Handler) RecordCash(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RecordCash")
	defer scope.End()

	req := dto.CashPaymentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	payment, err := handler.bookings.RecordCash(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to record cash payment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Cash payment recorded by watchman " + payment.WatchmanID)

	response.WithJSON(writer, http.StatusCreated, payment)
}

// PaymentResult receives the gateway's verdict on an online charge.
// @Summary Payment gateway callback
// @Description Apply a payment result. Results for charges that are no longer pending are acknowledged without effect.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.PaymentResult true "Payment Result"
// @Success 200 {object} response.Message "Result applied"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/results [post]
// @Security ApiKeyAuth
func (handler *Handler) PaymentResult(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PaymentResult")
	defer scope.End()

	req := dto.PaymentResult{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.bookings.ApplyPaymentResult(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to apply payment result")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Payment result applied")
}
