package service

import (
	"context"
	"fmt"
	"parking/internal/domains/booking/model"
	paymentModel "parking/internal/domains/payment/model"
	paymentDto "parking/internal/domains/payment/model/dto"
	watchmanModel "parking/internal/domains/watchman/model"
	"parking/shared"
	"parking/shared/constant"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// ApplyPaymentResult settles one gateway charge. A result for a charge that is
// no longer pending is acknowledged without effect, so redelivery is harmless.
// A failed charge of a booking that has not started cancels it.
func (s *serviceImpl) ApplyPaymentResult(ctx context.Context, result paymentDto.PaymentResult) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ApplyPaymentResult")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		"booking_id":     result.BookingID,
		"transaction_id": result.TransactionID,
		"status":         result.Status,
	})

	ctx = shared.SystemContext(ctx)

	current, err := s.load(ctx, result.BookingID)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, current, func(ctx context.Context, tx *sqlx.Tx, booking *model.Booking, now time.Time) (bool, error) {
		payment, err := s.paymentRepo.GetByTransactionForUpdateTx(ctx, tx, result.TransactionID)
		if err != nil {
			return false, fmt.Errorf("failed to lock payment: %w", err)
		}

		if payment.ID == constant.Empty || payment.BookingID != booking.ID {
			return false, model.ErrPaymentNotFound
		}

		if !payment.IsPending() {
			log.Info().Str("transactionID", result.TransactionID).Str("status", payment.PaymentStatus).Msg("payment result already applied")

			return false, nil
		}

		if err := s.paymentRepo.UpdateStatusTx(ctx, tx, payment.ID, result.Status, constant.RoleSystem, now); err != nil {
			return false, fmt.Errorf("failed to update payment: %w", err)
		}

		booking.Touch(constant.RoleSystem, now)

		if result.Status == paymentModel.StatusCompleted {
			return true, s.settle(ctx, tx, booking)
		}

		booking.PaymentStatus = model.PaymentFailed

		if booking.BookingStatus != model.StatusConfirmed {
			return true, nil
		}

		if err := booking.Cancel(now, constant.RoleSystem, 0); err != nil {
			return false, err
		}

		if err := s.release(ctx, tx, *booking, constant.RoleSystem); err != nil {
			return false, err
		}

		return true, s.voidPending(ctx, tx, booking, constant.RoleSystem, now)
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", result.BookingID).Msg("failed to apply payment result")

		return fmt.Errorf("failed to apply payment result: %w", err)
	}

	return nil
}

// settle marks the booking paid once no charge is left pending.
func (s *serviceImpl) settle(ctx context.Context, tx *sqlx.Tx, booking *model.Booking) error {
	pending, err := s.paymentRepo.GetPendingByBookingTx(ctx, tx, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to get pending payments: %w", err)
	}

	if len(pending) == 0 {
		booking.PaymentStatus = model.PaymentCompleted
	}

	return nil
}

// RecordCash settles everything the booking still owes with one cash payment
// collected by a watchman of its organization. The amount must match exactly.
func (s *serviceImpl) RecordCash(ctx context.Context, req paymentDto.CashPaymentRequest) (res paymentDto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.RecordCash")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	watchman, err := s.watchman.Current(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to resolve watchman: %w", err)
	}

	current, err := s.load(ctx, req.BookingID)
	if err != nil {
		return res, err
	}

	if current.OrganizationID != watchman.OrganizationID {
		return res, watchmanModel.ErrWrongOrganization
	}

	var cash paymentModel.Payment

	_, err = s.mutate(ctx, current, func(ctx context.Context, tx *sqlx.Tx, booking *model.Booking, now time.Time) (bool, error) {
		pending, err := s.paymentRepo.GetPendingByBookingTx(ctx, tx, booking.ID)
		if err != nil {
			return false, fmt.Errorf("failed to get pending payments: %w", err)
		}

		if len(pending) == 0 {
			return false, model.ErrNothingToSettle
		}

		var outstanding float64

		paymentType := paymentModel.TypePenalty
		for _, payment := range pending {
			outstanding += payment.Amount

			if payment.PaymentType == paymentModel.TypeBooking {
				paymentType = paymentModel.TypeBooking
			}
		}

		if shared.RoundMoney(outstanding) != shared.RoundMoney(req.Amount) {
			return false, model.ErrAmountMismatch
		}

		for _, payment := range pending {
			if err := s.paymentRepo.UpdateStatusTx(ctx, tx, payment.ID, paymentModel.StatusFailed, watchman.ID, now); err != nil {
				return false, fmt.Errorf("failed to supersede payment: %w", err)
			}
		}

		cash = newPayment(booking.ID, shared.RoundMoney(outstanding), paymentType, paymentModel.MethodCash, watchman.ID, now)
		cash.PaymentStatus = paymentModel.StatusCompleted
		cash.WatchmanID.String = watchman.ID
		cash.WatchmanID.Valid = true

		if err := s.paymentRepo.InsertTx(ctx, tx, cash); err != nil {
			return false, fmt.Errorf("failed to insert cash payment: %w", err)
		}

		booking.PaymentStatus = model.PaymentCompleted
		booking.Touch(watchman.ID, now)

		return true, nil
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", req.BookingID).Msg("failed to record cash payment")

		return res, fmt.Errorf("failed to record cash payment: %w", err)
	}

	res.FromModel(cash)

	return res, nil
}
