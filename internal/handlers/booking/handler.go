package booking

import (
	"context"
	"net/http"
	"parking/infras/otel"
	"parking/internal/domains/booking/model"
	"parking/internal/domains/booking/model/dto"
	"parking/internal/domains/booking/service"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	"parking/shared/validator"
	"parking/transport/http/response"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const queryParamStatus = "status"

var activeSortable = gDto.Sortable{
	"start":   model.TableName + "." + model.FieldBookingStartTime,
	"end":     model.TableName + "." + model.FieldBookingEndTime,
	"created": model.TableName + "." + constant.FieldCreatedAt,
}

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) begin(r *http.Request, op string) (context.Context, otel.Scope) {
	return handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+"."+op)
}

// fail records err on the span and writes the mapped error response.
func fail(w http.ResponseWriter, scope otel.Scope, action string, err error) {
	scope.TraceError(err)
	log.Error().Err(err).Str("action", action).Msg("booking request failed")

	response.WithError(w, err)
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/bookings", handler.CreateBooking)
	router.Post("/walk-ins", handler.CreateWalkIn)
	router.Get("/bookings/{id}", handler.GetBookingByID)
	router.Get("/bookings/{id}/qr", handler.GetQRCode)
	router.Post("/bookings/{id}/cancel", handler.CancelBooking)
	router.Get("/organizations/{id}/bookings/active", handler.GetActiveBookings)
}

// CreateBooking reserves a slot for the caller.
// @Summary Create a booking
// @Description Reserve a slot in the organization's first lot with free capacity. Members park for free, visitors are charged online.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking confirmed"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "No capacity"
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.begin(r, "CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		fail(w, scope, "validate request body", err)

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		fail(w, scope, "create booking", err)

		return
	}

	scope.AddEvent("Booking created successfully by user " + booking.UserID)

	response.WithJSON(w, http.StatusCreated, booking)
}

// CreateWalkIn registers a vehicle arriving without a booking.
// @Summary Register a walk-in
// @Description Admit a vehicle at the gate. The booking starts and becomes active immediately and is paid in cash.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.WalkInRequest true "Walk-in Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Walk-in admitted"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error "No capacity"
// @Failure 500 {object} response.Error
// @Router /v1/walk-ins [post]
// @Security BearerAuth
func (handler *Handler) CreateWalkIn(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.begin(r, "CreateWalkIn")
	defer scope.End()

	req := dto.WalkInRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		fail(w, scope, "validate request body", err)

		return
	}

	booking, err := handler.service.CreateWalkIn(ctx, req)
	if err != nil {
		fail(w, scope, "register walk-in", err)

		return
	}

	scope.AddEvent("Walk-in registered for vehicle " + booking.VehicleNumber)

	response.WithJSON(w, http.StatusCreated, booking)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Description Retrieve a booking. Users see their own bookings, watchmen those of their organization.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.begin(r, "GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		fail(w, scope, "get booking by ID", err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// GetQRCode renders the booking's gate QR code.
// @Summary Get a booking QR code
// @Description Render the signed booking token as a PNG QR code.
// @Tags Booking
// @Produce png
// @Param id path string true "Booking ID"
// @Success 200 {file} binary "QR code"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 410 {object} response.Error "Booking is closed"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/qr [get]
// @Security BearerAuth
func (handler *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.begin(r, "GetQRCode")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	image, err := handler.service.QRCode(ctx, id)
	if err != nil {
		fail(w, scope, "render booking qr code", err)

		return
	}

	response.WithPNG(w, image)
}

// CancelBooking cancels a confirmed booking and frees its slot.
// @Summary Cancel a booking
// @Description Cancel a booking that has not been entered yet. The slot is returned to the lot.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking cancelled"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.begin(r, "CancelBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Cancel(ctx, id)
	if err != nil {
		fail(w, scope, "cancel booking", err)

		return
	}

	scope.AddEvent("Booking cancelled by " + booking.CancelledBy)

	response.WithJSON(w, http.StatusOK, booking)
}

// GetActiveBookings lists the bookings holding a slot in an organization.
// @Summary List active bookings
// @Description List the organization's confirmed and active bookings for the gate dashboard.
// @Tags Booking
// @Produce json
// @Param id path string true "Organization ID"
// @Param status query string false "Comma separated subset of confirmed,active"
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "Live bookings"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/organizations/{id}/bookings/active [get]
// @Security BearerAuth
func (handler *Handler) GetActiveBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.begin(r, "GetActiveBookings")
	defer scope.End()

	organizationID := chi.URLParam(r, constant.RequestParamID)

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, activeSortable)

	var statuses []string
	if status := r.URL.Query().Get(queryParamStatus); status != "" {
		statuses = strings.Split(status, ",")
	}

	bookings, err := handler.service.ActiveBookings(ctx, organizationID, statuses, queryParams)
	if err != nil {
		fail(w, scope, "get active bookings", err)

		return
	}

	scope.SetAttribute(model.FieldOrganizationID, organizationID)

	response.WithJSON(w, http.StatusOK, bookings)
}
