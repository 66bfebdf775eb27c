package verification

import (
	"net/http"
	"parking/infras/otel"
	"parking/internal/domains/verification/model/dto"
	"parking/internal/domains/verification/service"
	"parking/shared/constant"
	"parking/shared/validator"
	"parking/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Verification
	otel    otel.Otel
}

func New(service service.Verification, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/verifications", func(routerGroup chi.Router) {
		routerGroup.Post("/resolve", handler.Resolve)
		routerGroup.Post("/entry", handler.VerifyEntry)
		routerGroup.Post("/exit", handler.VerifyExit)
	})

	router.Post("/bookings/{id}/force-checkout", handler.ForceCheckout)
}

// Resolve looks up a scanned QR code or typed booking id.
// @Summary Resolve a gate scan
// @Description Resolve a QR token or booking id to its booking without changing it.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body dto.VerifyRequest true "Scan"
// @Success 200 {object} response.Data[bookingDto.BookingResponse] "Resolved booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error "Token not recognized"
// @Failure 410 {object} response.Error "Token expired"
// @Router /v1/verifications/resolve [post]
// @Security BearerAuth
func (handler *Handler) Resolve(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Resolve")
	defer scope.End()

	req := dto.VerifyRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.Preview(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to resolve scan")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// VerifyEntry admits a vehicle.
// @Summary Verify entry
// @Description Activate the booking behind a scanned QR code or typed booking id. Repeating a scan of an active booking succeeds.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body dto.VerifyRequest true "Scan"
// @Success 200 {object} response.Data[bookingDto.BookingResponse] "Booking active"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Booking cannot be entered"
// @Failure 410 {object} response.Error "Token expired"
// @Router /v1/verifications/entry [post]
// @Security BearerAuth
func (handler *Handler) VerifyEntry(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".VerifyEntry")
	defer scope.End()

	req := dto.VerifyRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.VerifyEntry(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to verify entry")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Entry verified for booking " + booking.ID)

	response.WithJSON(writer, http.StatusOK, booking)
}

// VerifyExit releases a vehicle's slot.
// @Summary Verify exit
// @Description Complete the booking, or mark it overstay and raise a penalty charge. Repeating an exit returns the same receipt.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body dto.VerifyRequest true "Scan"
// @Success 200 {object} response.Data[bookingDto.ExitReceipt] "Exit receipt"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Booking is not active"
// @Failure 410 {object} response.Error "Token expired"
// @Router /v1/verifications/exit [post]
// @Security BearerAuth
func (handler *Handler) VerifyExit(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".VerifyExit")
	defer scope.End()

	req := dto.VerifyRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	receipt, err := handler.service.VerifyExit(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to verify exit")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Exit verified for booking " + receipt.BookingID)

	response.WithJSON(writer, http.StatusOK, receipt)
}

// ForceCheckout exits a booking whose QR code cannot be scanned.
// @Summary Force checkout
// @Description Exit a booking by id on behalf of the driver, applying the usual overstay rules.
// @Tags Verification
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[bookingDto.ExitReceipt] "Exit receipt"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Booking is not active"
// @Router /v1/bookings/{id}/force-checkout [post]
// @Security BearerAuth
func (handler *Handler) ForceCheckout(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ForceCheckout")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	receipt, err := handler.service.ForceCheckout(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to force checkout")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Forced checkout of booking " + receipt.BookingID)

	response.WithJSON(writer, http.StatusOK, receipt)
}
