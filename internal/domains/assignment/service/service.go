package service

import (
	"context"
	"errors"
	"fmt"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/internal/domains/assignment/model"
	bookingModel "parking/internal/domains/booking/model"
	bookingRepo "parking/internal/domains/booking/repository"
	capacityModel "parking/internal/domains/capacity/model"
	capacityService "parking/internal/domains/capacity/service"
	lotRepo "parking/internal/domains/lot/repository"
	"parking/shared/constant"
	"parking/shared/locker"
	"parking/shared/logger"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// CommitFunc persists whatever owns the assignment. It runs in the same
// transaction and lot critical section as the reservation, so an error rolls
// the reservation back.
type CommitFunc func(ctx context.Context, tx *sqlx.Tx, assignment model.Assignment) error

type Assignor interface {
	Assign(ctx context.Context, organizationID string, window model.Window, commit CommitFunc) (model.Assignment, error)
}

type serviceImpl struct {
	lotRepo     lotRepo.Lot
	bookingRepo bookingRepo.Booking
	ledger      capacityService.Ledger
	transactor  postgres.Transactor
	locker      locker.Locker
	otel        otel.Otel
}

func New(
	lotRepo lotRepo.Lot,
	bookingRepo bookingRepo.Booking,
	ledger capacityService.Ledger,
	transactor postgres.Transactor,
	locker locker.Locker,
	otel otel.Otel,
) Assignor {
	return &serviceImpl{
		lotRepo:     lotRepo,
		bookingRepo: bookingRepo,
		ledger:      ledger,
		transactor:  transactor,
		locker:      locker,
		otel:        otel,
	}
}

// Assign walks the organization's active lots in fill order and takes the
// lowest free slot number of the first lot that still has capacity.
func (s *serviceImpl) Assign(ctx context.Context, organizationID string, window model.Window, commit CommitFunc) (res model.Assignment, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".assignor.Assign")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		"organization_id": organizationID,
		"window.start":    window.Start,
		"window.end":      window.End,
	})

	lots, err := s.lotRepo.GetActiveByOrganization(ctx, organizationID)
	if err != nil {
		log.Error().Err(err).Str("organizationID", organizationID).Msg("failed to get lots")

		return res, fmt.Errorf("failed to get lots: %w", err)
	}

	for _, lot := range lots {
		// Counters read outside the lock are only a hint; ReserveTx decides.
		if lot.AvailableSlots <= 0 {
			continue
		}

		res, err = s.assignInLot(ctx, lot.ID, commit)
		if errors.Is(err, capacityModel.ErrCapacityExhausted) {
			log.Debug().Str("lotID", lot.ID).Msg("lot filled up while assigning, trying next")

			continue
		}

		if err != nil {
			return res, err
		}

		return res, nil
	}

	return res, model.ErrNoCapacity
}

func (s *serviceImpl) assignInLot(ctx context.Context, lotID string, commit CommitFunc) (res model.Assignment, err error) {
	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	err = s.locker.WithLock(ctx, capacityModel.LockKey(lotID), func(ctx context.Context) error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
			lot, err := s.ledger.ReserveTx(ctx, tx, lotID, actor)
			if err != nil {
				return err
			}

			live, err := s.bookingRepo.GetLiveByLotTx(ctx, tx, lotID)
			if err != nil {
				return fmt.Errorf("failed to get live bookings: %w", err)
			}

			slot := lowestFreeSlot(lot.TotalSlots, live)
			if slot == 0 {
				logger.InvariantViolation(model.ErrAssignmentInconsistency, map[string]any{
					"lot_id":     lot.ID,
					"total":      lot.TotalSlots,
					"available":  lot.AvailableSlots + 1,
					"live_count": len(live),
				})

				return model.ErrAssignmentInconsistency
			}

			assignment := model.Assignment{
				LotID:          lot.ID,
				OrganizationID: lot.OrganizationID,
				SlotNumber:     slot,
			}

			if err := commit(ctx, tx, assignment); err != nil {
				return err
			}

			res = assignment

			return nil
		})
	})

	return res, err //nolint:wrapcheck
}

// lowestFreeSlot treats every live booking as holding its slot for its whole
// lifetime, matching how the ledger counts it. Returns 0 when nothing is free.
func lowestFreeSlot(total int, live []bookingModel.Booking) int {
	taken := make(map[int]struct{}, len(live))
	for _, booking := range live {
		taken[booking.SlotNumber] = struct{}{}
	}

	for slot := 1; slot <= total; slot++ {
		if _, ok := taken[slot]; !ok {
			return slot
		}
	}

	return 0
}
