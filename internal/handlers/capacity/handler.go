package capacity

import (
	"net/http"
	"parking/infras/otel"
	"parking/internal/domains/capacity/model/dto"
	"parking/internal/domains/capacity/service"
	watchmanService "parking/internal/domains/watchman/service"
	"parking/shared/constant"
	"parking/shared/validator"
	"parking/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	ledger   service.Ledger
	watchman watchmanService.Watchman
	otel     otel.Otel
}

func New(ledger service.Ledger, watchman watchmanService.Watchman, otel otel.Otel) Handler {
	return Handler{
		ledger:   ledger,
		watchman: watchman,
		otel:     otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/organizations/{id}/capacity", handler.GetSnapshot)
	router.Post("/organizations/{id}/reconcile", handler.Reconcile)
	router.Put("/lots/{id}/capacity", handler.ResizeLot)
}

// GetSnapshot reports an organization's capacity.
// @Summary Get capacity snapshot
// @Description Capacity per lot and in total, alongside the stored organization projection.
// @Tags Capacity
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} response.Data[dto.SnapshotResponse] "Capacity snapshot"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/organizations/{id}/capacity [get]
// @Security BearerAuth
func (handler *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSnapshot")
	defer scope.End()

	organizationID := chi.URLParam(r, constant.RequestParamID)

	if err := handler.watchman.Authorize(ctx, organizationID); err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	snapshot, err := handler.ledger.Snapshot(ctx, organizationID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get capacity snapshot")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, snapshot)
}

// Reconcile rewrites an organization's capacity projection from its lots.
// @Summary Reconcile capacity
// @Description Recompute the organization's totals from its active lots.
// @Tags Capacity
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} response.Message "Capacity reconciled"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/organizations/{id}/reconcile [post]
// @Security BearerAuth
func (handler *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Reconcile")
	defer scope.End()

	organizationID := chi.URLParam(r, constant.RequestParamID)

	if err := handler.ledger.Reconcile(ctx, organizationID); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reconcile capacity")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Capacity reconciled")
}

// ResizeLot changes a lot's slot count.
// @Summary Resize a lot
// @Description Change the total slots of a lot. A lot cannot shrink below its occupied slots.
// @Tags Capacity
// @Accept json
// @Produce json
// @Param id path string true "Lot ID"
// @Param request body dto.ResizeRequest true "Resize Request"
// @Success 200 {object} response.Data[dto.LotResponse] "Lot resized"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Below occupancy"
// @Failure 500 {object} response.Error
// @Router /v1/lots/{id}/capacity [put]
// @Security BearerAuth
func (handler *Handler) ResizeLot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ResizeLot")
	defer scope.End()

	lotID := chi.URLParam(r, constant.RequestParamID)

	req := dto.ResizeRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	lot, err := handler.ledger.Resize(ctx, lotID, req.TotalSlots)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to resize lot")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Lot " + lot.ID + " resized")

	response.WithJSON(w, http.StatusOK, lot)
}
