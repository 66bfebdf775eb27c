package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"parking/infras/otel"
	bookingModel "parking/internal/domains/booking/model"
	bookingDto "parking/internal/domains/booking/model/dto"
	bookingRepo "parking/internal/domains/booking/repository"
	bookingService "parking/internal/domains/booking/service"
	"parking/internal/domains/verification/model/dto"
	"parking/internal/domains/verification/token"
	watchmanService "parking/internal/domains/watchman/service"
	"parking/shared/constant"

	"github.com/rs/zerolog/log"
)

// Verification turns gate scans into lifecycle transitions on behalf of a watchman.
type Verification interface {
	ResolveToken(ctx context.Context, token string) (bookingModel.Booking, error)
	Preview(ctx context.Context, req dto.VerifyRequest) (bookingDto.BookingResponse, error)
	VerifyEntry(ctx context.Context, req dto.VerifyRequest) (bookingDto.BookingResponse, error)
	VerifyExit(ctx context.Context, req dto.VerifyRequest) (bookingDto.ExitReceipt, error)
	ForceCheckout(ctx context.Context, bookingID string) (bookingDto.ExitReceipt, error)
}

type serviceImpl struct {
	signer   token.Signer
	repo     bookingRepo.Booking
	bookings bookingService.Booking
	watchman watchmanService.Watchman
	otel     otel.Otel
}

func New(
	signer token.Signer,
	repo bookingRepo.Booking,
	bookings bookingService.Booking,
	watchman watchmanService.Watchman,
	otel otel.Otel,
) Verification {
	return &serviceImpl{
		signer:   signer,
		repo:     repo,
		bookings: bookings,
		watchman: watchman,
		otel:     otel,
	}
}

// ResolveToken checks the signature and expiry before trusting the booking id
// it carries. A token of a booking that already ended is expired.
func (s *serviceImpl) ResolveToken(ctx context.Context, raw string) (res bookingModel.Booking, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".verification.ResolveToken")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	claims, err := s.signer.Parse(raw)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	res, err = s.repo.GetByID(ctx, claims.BookingID)
	if err != nil {
		log.Error().Err(err).Str("bookingID", claims.BookingID).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if res.ID == constant.Empty || res.OrganizationID != claims.OrganizationID {
		return bookingModel.Booking{}, bookingModel.ErrTokenNotFound
	}

	if res.IsTerminal() {
		return res, bookingModel.ErrTokenExpired
	}

	return res, nil
}

func (s *serviceImpl) resolve(ctx context.Context, req dto.VerifyRequest) (bookingModel.Booking, error) {
	if req.Token != constant.Empty {
		return s.ResolveToken(ctx, req.Token)
	}

	booking, err := s.repo.GetByID(ctx, req.BookingID)
	if err != nil {
		log.Error().Err(err).Str("bookingID", req.BookingID).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, bookingModel.ErrBookingNotFound
	}

	return booking, nil
}

// Preview shows the gate what a scan resolves to without changing the booking.
func (s *serviceImpl) Preview(ctx context.Context, req dto.VerifyRequest) (res bookingDto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".verification.Preview")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.resolve(ctx, req)
	if err != nil {
		return res, err
	}

	if err = s.watchman.Authorize(ctx, booking.OrganizationID); err != nil {
		return res, err //nolint:wrapcheck
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) VerifyEntry(ctx context.Context, req dto.VerifyRequest) (res bookingDto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".verification.VerifyEntry")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.resolve(ctx, req)
	if err != nil {
		return res, err
	}

	if err = s.watchman.Authorize(ctx, booking.OrganizationID); err != nil {
		return res, err //nolint:wrapcheck
	}

	return s.bookings.Activate(ctx, booking.ID) //nolint:wrapcheck
}

func (s *serviceImpl) VerifyExit(ctx context.Context, req dto.VerifyRequest) (res bookingDto.ExitReceipt, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".verification.VerifyExit")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.resolve(ctx, req)
	if err != nil {
		return res, err
	}

	if err = s.watchman.Authorize(ctx, booking.OrganizationID); err != nil {
		return res, err //nolint:wrapcheck
	}

	return s.bookings.Exit(ctx, booking.ID) //nolint:wrapcheck
}

// ForceCheckout exits a booking without a scan, e.g. for a lost QR code.
func (s *serviceImpl) ForceCheckout(ctx context.Context, bookingID string) (res bookingDto.ExitReceipt, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".verification.ForceCheckout")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.VerifyExit(ctx, dto.VerifyRequest{BookingID: bookingID})
}
