package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/internal/domains/capacity/model"
	"parking/internal/domains/capacity/model/dto"
	lotModel "parking/internal/domains/lot/model"
	lotRepo "parking/internal/domains/lot/repository"
	orgRepo "parking/internal/domains/organization/repository"
	"parking/shared/constant"
	"parking/shared/locker"
	"parking/shared/logger"
	"parking/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Ledger owns the per-lot slot counters. ReserveTx and ReleaseTx must run
// inside the lot's critical section (see model.LockKey) and a transaction.
type Ledger interface {
	ReserveTx(ctx context.Context, tx *sqlx.Tx, lotID, actor string) (lotModel.ParkingLot, error)
	ReleaseTx(ctx context.Context, tx *sqlx.Tx, lotID, actor string) error
	Resize(ctx context.Context, lotID string, newTotal int) (dto.LotResponse, error)
	Reconcile(ctx context.Context, organizationID string) error
	ReconcileAll(ctx context.Context) error
	Snapshot(ctx context.Context, organizationID string) (dto.SnapshotResponse, error)
}

type serviceImpl struct {
	lotRepo    lotRepo.Lot
	orgRepo    orgRepo.Organization
	transactor postgres.Transactor
	locker     locker.Locker
	clock      timezone.Clock
	otel       otel.Otel
}

func New(
	lotRepo lotRepo.Lot,
	orgRepo orgRepo.Organization,
	transactor postgres.Transactor,
	locker locker.Locker,
	clock timezone.Clock,
	otel otel.Otel,
) Ledger {
	return &serviceImpl{
		lotRepo:    lotRepo,
		orgRepo:    orgRepo,
		transactor: transactor,
		locker:     locker,
		clock:      clock,
		otel:       otel,
	}
}

func (s *serviceImpl) ReserveTx(ctx context.Context, tx *sqlx.Tx, lotID, actor string) (lot lotModel.ParkingLot, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ledger.ReserveTx")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("lot_id", lotID)

	lot, err = s.lotRepo.GetForUpdateTx(ctx, tx, lotID)
	if err != nil {
		return lot, fmt.Errorf("failed to lock lot: %w", err)
	}

	if lot.ID == "" {
		return lot, model.ErrLotNotFound
	}

	if lot.AvailableSlots > lot.TotalSlots || lot.AvailableSlots < 0 {
		logger.InvariantViolation(model.ErrLedgerInconsistency, map[string]any{
			"lot_id":    lot.ID,
			"available": lot.AvailableSlots,
			"total":     lot.TotalSlots,
			"operation": "reserve",
		})

		return lot, model.ErrLedgerInconsistency
	}

	if !lot.IsActive || lot.AvailableSlots == 0 {
		return lot, model.ErrCapacityExhausted
	}

	lot.AvailableSlots--
	lot.Touch(actor, s.clock())

	err = s.lotRepo.UpdateCountersTx(ctx, tx, lot.ID, lot.TotalSlots, lot.AvailableSlots, actor, lot.ModifiedAt)
	if err != nil {
		log.Error().Err(err).Str("lotID", lot.ID).Msg("failed to reserve slot")

		return lot, fmt.Errorf("failed to reserve slot: %w", err)
	}

	return lot, nil
}

func (s *serviceImpl) ReleaseTx(ctx context.Context, tx *sqlx.Tx, lotID, actor string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ledger.ReleaseTx")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("lot_id", lotID)

	lot, err := s.lotRepo.GetForUpdateTx(ctx, tx, lotID)
	if err != nil {
		return fmt.Errorf("failed to lock lot: %w", err)
	}

	if lot.ID == "" {
		return model.ErrLotNotFound
	}

	if lot.AvailableSlots+1 > lot.TotalSlots {
		logger.InvariantViolation(model.ErrLedgerInconsistency, map[string]any{
			"lot_id":    lot.ID,
			"available": lot.AvailableSlots,
			"total":     lot.TotalSlots,
			"operation": "release",
		})

		return model.ErrLedgerInconsistency
	}

	err = s.lotRepo.UpdateCountersTx(ctx, tx, lot.ID, lot.TotalSlots, lot.AvailableSlots+1, actor, s.clock())
	if err != nil {
		log.Error().Err(err).Str("lotID", lot.ID).Msg("failed to release slot")

		return fmt.Errorf("failed to release slot: %w", err)
	}

	return nil
}

func (s *serviceImpl) Resize(ctx context.Context, lotID string, newTotal int) (res dto.LotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ledger.Resize")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	var lot lotModel.ParkingLot

	err = s.locker.WithLock(ctx, model.LockKey(lotID), func(ctx context.Context) error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
			current, err := s.lotRepo.GetForUpdateTx(ctx, tx, lotID)
			if err != nil {
				return fmt.Errorf("failed to lock lot: %w", err)
			}

			if current.ID == "" {
				return model.ErrLotNotFound
			}

			occupied := current.Occupied()
			if newTotal < occupied {
				return model.ErrBelowOccupied
			}

			current.TotalSlots = newTotal
			current.AvailableSlots = newTotal - occupied
			current.Touch(actor, s.clock())

			if err := s.lotRepo.UpdateCountersTx(ctx, tx, current.ID, current.TotalSlots, current.AvailableSlots, actor, current.ModifiedAt); err != nil {
				return fmt.Errorf("failed to resize lot: %w", err)
			}

			lot = current

			return nil
		})
	})
	if err != nil {
		log.Error().Err(err).Str("lotID", lotID).Int("newTotal", newTotal).Msg("failed to resize lot")

		return res, fmt.Errorf("failed to resize lot: %w", err)
	}

	if err := s.Reconcile(ctx, lot.OrganizationID); err != nil {
		log.Error().Err(err).Str("organizationID", lot.OrganizationID).Msg("failed to reconcile organization after resize")
	}

	res.FromModel(lot)

	return res, nil
}

// Reconcile rewrites the organization projection from its active lots.
func (s *serviceImpl) Reconcile(ctx context.Context, organizationID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ledger.Reconcile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if actor == "" {
		actor = constant.RoleSystem
	}

	return s.transactor.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error { //nolint:wrapcheck
		org, err := s.orgRepo.GetForUpdateTx(ctx, tx, organizationID)
		if err != nil {
			return fmt.Errorf("failed to lock organization: %w", err)
		}

		if org.ID == "" {
			return model.ErrOrganizationMissing
		}

		lots, err := s.lotRepo.GetActiveByOrganizationTx(ctx, tx, organizationID)
		if err != nil {
			return fmt.Errorf("failed to get lots: %w", err)
		}

		var total, available int
		for _, lot := range lots {
			total += lot.TotalSlots
			available += lot.AvailableSlots
		}

		if total == org.TotalSlots && available == org.AvailableSlots {
			return nil
		}

		log.Info().
			Str("organizationID", organizationID).
			Int("total", total).
			Int("available", available).
			Msg("organization projection out of date, rewriting")

		if err := s.orgRepo.UpdateCountersTx(ctx, tx, organizationID, total, available, actor, s.clock()); err != nil {
			return fmt.Errorf("failed to update organization counters: %w", err)
		}

		return nil
	})
}

func (s *serviceImpl) ReconcileAll(ctx context.Context) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ledger.ReconcileAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	ids, err := s.orgRepo.GetActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	var errs []error

	for _, id := range ids {
		if err := s.Reconcile(ctx, id); err != nil {
			log.Error().Err(err).Str("organizationID", id).Msg("failed to reconcile organization")

			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *serviceImpl) Snapshot(ctx context.Context, organizationID string) (res dto.SnapshotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ledger.Snapshot")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		return res, fmt.Errorf("failed to get organization: %w", err)
	}

	if org.ID == "" {
		return res, model.ErrOrganizationMissing
	}

	lots, err := s.lotRepo.GetActiveByOrganization(ctx, organizationID)
	if err != nil {
		return res, fmt.Errorf("failed to get lots: %w", err)
	}

	res.FromModels(org, lots)

	return res, nil
}
