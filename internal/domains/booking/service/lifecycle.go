package service

import (
	"context"
	"errors"
	"fmt"
	"parking/internal/domains/booking/model"
	"parking/internal/domains/booking/model/dto"
	capacityModel "parking/internal/domains/capacity/model"
	paymentModel "parking/internal/domains/payment/model"
	"parking/shared"
	"parking/shared/constant"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// mutation applies one transition to the locked booking row. It reports
// whether anything changed; an unchanged booking is not written.
type mutation func(ctx context.Context, tx *sqlx.Tx, booking *model.Booking, now time.Time) (bool, error)

// mutate runs fn under the booking's lot lock, in a transaction holding the
// booking row. The status change, its event and any capacity change commit together.
func (s *serviceImpl) mutate(ctx context.Context, current model.Booking, fn mutation) (model.Booking, error) {
	var (
		result  model.Booking
		from    string
		changed bool
	)

	run := func(ctx context.Context) error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
			booking, err := s.repo.GetForUpdateTx(ctx, tx, current.ID)
			if err != nil {
				return fmt.Errorf("failed to lock booking: %w", err)
			}

			if booking.ID == constant.Empty {
				return model.ErrBookingNotFound
			}

			from = booking.BookingStatus

			changed, err = fn(ctx, tx, &booking, s.clock())
			if err != nil {
				return err
			}

			result = booking

			if !changed {
				return nil
			}

			if err := s.repo.UpdateTx(ctx, tx, booking); err != nil {
				return fmt.Errorf("failed to update booking: %w", err)
			}

			if from == booking.BookingStatus {
				return nil
			}

			return s.appendEvent(ctx, tx, booking.ID, from, booking.BookingStatus, booking.ModifiedBy, booking.ModifiedAt)
		})
	}

	var err error
	if current.LotID.Valid {
		err = s.locker.WithLock(ctx, capacityModel.LockKey(current.LotID.String), run)
	} else {
		err = run(ctx)
	}

	if err != nil {
		return result, err //nolint:wrapcheck
	}

	if changed {
		s.afterCommit(ctx, result, from)
	}

	return result, nil
}

// release returns the booking's slot to its lot. Legacy bookings without a lot hold no capacity.
func (s *serviceImpl) release(ctx context.Context, tx *sqlx.Tx, booking model.Booking, actor string) error {
	if !booking.LotID.Valid {
		return nil
	}

	if err := s.ledger.ReleaseTx(ctx, tx, booking.LotID.String, actor); err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	return nil
}

// voidPending marks every pending charge of the booking failed.
func (s *serviceImpl) voidPending(ctx context.Context, tx *sqlx.Tx, booking *model.Booking, actor string, now time.Time) error {
	pending, err := s.paymentRepo.GetPendingByBookingTx(ctx, tx, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to get pending payments: %w", err)
	}

	for _, payment := range pending {
		if err := s.paymentRepo.UpdateStatusTx(ctx, tx, payment.ID, paymentModel.StatusFailed, actor, now); err != nil {
			return fmt.Errorf("failed to void payment: %w", err)
		}
	}

	if booking.PaymentStatus == model.PaymentPending {
		booking.PaymentStatus = model.PaymentFailed
	}

	return nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if err = s.authorize(ctx, current.UserID, current.OrganizationID); err != nil {
		return res, err
	}

	actor := shared.Actor(ctx)

	booking, err := s.mutate(ctx, current, func(ctx context.Context, tx *sqlx.Tx, booking *model.Booking, now time.Time) (bool, error) {
		if err := booking.Cancel(now, actor, s.policy.CancelCutoff); err != nil {
			return false, err
		}

		if err := s.release(ctx, tx, *booking, actor); err != nil {
			return false, err
		}

		return true, s.voidPending(ctx, tx, booking, actor, now)
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to cancel booking")

		return res, fmt.Errorf("failed to cancel booking: %w", err)
	}

	go func() {
		if err := s.qr.Remove(context.WithoutCancel(ctx), booking.QRImageURL.String); err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to remove qr image")
		}
	}()

	res.FromModel(booking)

	return res, nil
}

// Activate records entry. Activating an active booking succeeds without change.
func (s *serviceImpl) Activate(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Activate")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	booking, _, err := s.activate(ctx, current)
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to activate booking")

		return res, fmt.Errorf("failed to activate booking: %w", err)
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) activate(ctx context.Context, current model.Booking) (model.Booking, bool, error) {
	actor := shared.Actor(ctx)

	var activated bool

	booking, err := s.mutate(ctx, current, func(_ context.Context, _ *sqlx.Tx, booking *model.Booking, now time.Time) (bool, error) {
		changed, err := booking.Activate(now, actor)
		activated = changed

		return changed, err
	})

	return booking, activated, err
}

// Exit completes the booking, or marks it overstay and raises a cash penalty
// charge. Either way the slot is released. Exiting twice returns the same receipt.
func (s *serviceImpl) Exit(ctx context.Context, id string) (res dto.ExitReceipt, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Exit")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	org, err := s.orgRepo.GetByID(ctx, current.OrganizationID)
	if err != nil {
		log.Error().Err(err).Str("organizationID", current.OrganizationID).Msg("failed to get organization")

		return res, fmt.Errorf("failed to get organization: %w", err)
	}

	actor := shared.Actor(ctx)

	booking, err := s.mutate(ctx, current, func(ctx context.Context, tx *sqlx.Tx, booking *model.Booking, now time.Time) (bool, error) {
		changed, err := booking.Exit(now, actor, org.VisitorHourlyRate, s.penalty)
		if err != nil || !changed {
			return changed, err
		}

		if err := s.release(ctx, tx, *booking, actor); err != nil {
			return false, err
		}

		if booking.PenaltyAmount <= 0 {
			return true, nil
		}

		charge := newPayment(booking.ID, booking.PenaltyAmount, paymentModel.TypePenalty, paymentModel.MethodCash, actor, now)
		if err := s.paymentRepo.InsertTx(ctx, tx, charge); err != nil {
			return false, fmt.Errorf("failed to insert penalty charge: %w", err)
		}

		booking.PaymentStatus = model.PaymentPending

		return true, nil
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to exit booking")

		return res, fmt.Errorf("failed to exit booking: %w", err)
	}

	res.FromModel(booking)

	return res, nil
}

// ActivateDue activates confirmed bookings whose window has started. It
// shares Activate's path with the gate, so a booking scanned in the meantime
// is skipped without error.
func (s *serviceImpl) ActivateDue(ctx context.Context) (activated int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ActivateDue")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	ctx = shared.SystemContext(ctx)

	due, err := s.repo.GetDueForActivation(ctx, s.clock(), s.cfg.Scheduler.ActivationBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings due for activation")

		return 0, fmt.Errorf("failed to get bookings due for activation: %w", err)
	}

	var errs []error

	for _, booking := range due {
		_, changed, err := s.activate(ctx, booking)
		if err != nil {
			// Cancelled between listing and locking.
			if errors.Is(err, model.ErrNotConfirmed) {
				continue
			}

			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to auto-activate booking")

			errs = append(errs, err)

			continue
		}

		if changed {
			activated++
		}
	}

	scope.SetAttribute("activated", activated)

	return activated, errors.Join(errs...)
}
