package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"context"
	"fmt"
	"parking/config"
	"parking/infras/kafka"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/infras/rabbitmq"
	assignmentModel "parking/internal/domains/assignment/model"
	assignmentService "parking/internal/domains/assignment/service"
	"parking/internal/domains/booking/model"
	"parking/internal/domains/booking/model/dto"
	"parking/internal/domains/booking/repository"
	capacityService "parking/internal/domains/capacity/service"
	orgRepo "parking/internal/domains/organization/repository"
	paymentModel "parking/internal/domains/payment/model"
	paymentDto "parking/internal/domains/payment/model/dto"
	paymentRepo "parking/internal/domains/payment/repository"
	qrService "parking/internal/domains/qr/service"
	"parking/internal/domains/verification/token"
	watchmanService "parking/internal/domains/watchman/service"
	"parking/shared"
	"parking/shared/cache"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	"parking/shared/failure"
	"parking/shared/locker"
	gModel "parking/shared/model"
	"parking/shared/timezone"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking = "booking:get"
	walkInUserID    = "walkin"
	hoursPerDay     = 24
)

// Booking is the only entry point that changes bookings together with lot
// capacity. Every method that mutates a booking runs inside the lot's
// critical section and a single transaction.
type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	CreateWalkIn(ctx context.Context, req dto.WalkInRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	QRCode(ctx context.Context, id string) ([]byte, error)
	ActiveBookings(ctx context.Context, organizationID string, statuses []string, params gDto.QueryParams) (dto.GetBookingsResponse, error)
	Cancel(ctx context.Context, id string) (dto.BookingResponse, error)
	Activate(ctx context.Context, id string) (dto.BookingResponse, error)
	Exit(ctx context.Context, id string) (dto.ExitReceipt, error)
	ActivateDue(ctx context.Context) (int, error)
	ApplyPaymentResult(ctx context.Context, result paymentDto.PaymentResult) error
	RecordCash(ctx context.Context, req paymentDto.CashPaymentRequest) (paymentDto.PaymentResponse, error)
}

type serviceImpl struct {
	repo        repository.Booking
	orgRepo     orgRepo.Organization
	paymentRepo paymentRepo.Payment
	assignor    assignmentService.Assignor
	ledger      capacityService.Ledger
	watchman    watchmanService.Watchman
	signer      token.Signer
	qr          qrService.QR
	penalty     model.PenaltyPolicy
	transactor  postgres.Transactor
	locker      locker.Locker
	publisher   rabbitmq.Publisher
	kafka       kafka.Client
	cache       cache.RedisCache
	clock       timezone.Clock
	cfg         *config.Config
	otel        otel.Otel
	policy      model.Policy
}

type Dependencies struct {
	Repo        repository.Booking
	OrgRepo     orgRepo.Organization
	PaymentRepo paymentRepo.Payment
	Assignor    assignmentService.Assignor
	Ledger      capacityService.Ledger
	Watchman    watchmanService.Watchman
	Signer      token.Signer
	QR          qrService.QR
	Penalty     model.PenaltyPolicy
	Transactor  postgres.Transactor
	Locker      locker.Locker
	Publisher   rabbitmq.Publisher
	Kafka       kafka.Client
	Cache       cache.RedisCache
	Clock       timezone.Clock
	Config      *config.Config
	Otel        otel.Otel
}

func New(deps Dependencies) Booking {
	return &serviceImpl{
		repo:        deps.Repo,
		orgRepo:     deps.OrgRepo,
		paymentRepo: deps.PaymentRepo,
		assignor:    deps.Assignor,
		ledger:      deps.Ledger,
		watchman:    deps.Watchman,
		signer:      deps.Signer,
		qr:          deps.QR,
		penalty:     deps.Penalty,
		transactor:  deps.Transactor,
		locker:      deps.Locker,
		publisher:   deps.Publisher,
		kafka:       deps.Kafka,
		cache:       deps.Cache,
		clock:       deps.Clock,
		cfg:         deps.Config,
		otel:        deps.Otel,
		policy:      policyFromConfig(deps.Config),
	}
}

func policyFromConfig(cfg *config.Config) model.Policy {
	return model.Policy{
		MaxAdvance:   time.Duration(cfg.Booking.MaxAdvanceDays) * hoursPerDay * time.Hour,
		PastGrace:    time.Duration(cfg.Booking.PastGraceMinutes) * time.Minute,
		CancelCutoff: time.Duration(cfg.Booking.CancelCutoffMinutes) * time.Minute,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if userID == "" {
		return res, failure.Unauthorized("missing caller") //nolint:wrapcheck
	}

	org, err := s.orgRepo.GetByID(ctx, req.OrganizationID)
	if err != nil {
		log.Error().Err(err).Str("organizationID", req.OrganizationID).Msg("failed to get organization")

		return res, fmt.Errorf("failed to get organization: %w", err)
	}

	if org.ID == "" || !org.IsActive {
		return res, model.ErrOrganizationNotFound
	}

	now := s.clock()
	if err = model.ValidateWindow(req.Start, req.End, now, s.policy); err != nil {
		return res, err
	}

	userType := model.UserTypeVisitor
	if callerOrg, _ := ctx.Value(constant.ContextKeyOrganizationID).(string); callerOrg == org.ID {
		userType = model.UserTypeMember
	}

	booking := model.Booking{
		ID:               uuid.NewString(),
		UserID:           userID,
		OrganizationID:   org.ID,
		VehicleNumber:    dto.NormalizeVehicleNumber(req.VehicleNumber),
		UserType:         userType,
		BookingStartTime: req.Start,
		BookingEndTime:   req.End,
		BookingStatus:    model.StatusConfirmed,
		Metadata:         gModel.NewMetadata(userID, now),
	}
	booking.Amount, booking.PaymentStatus = model.Price(userType, req.Start, req.End, org.MemberParkingFree, org.VisitorHourlyRate)

	booking, charge, err := s.place(ctx, booking, paymentModel.MethodOnline, nil)
	if err != nil {
		return res, err
	}

	s.afterCommit(ctx, booking, constant.Empty)

	if charge.ID != "" {
		s.requestPayment(ctx, charge)
	}

	go s.publishQR(context.WithoutCancel(ctx), booking)

	res.FromModel(booking)

	return res, nil
}

// CreateWalkIn registers a vehicle at the gate: the booking starts now and is
// activated in the same transaction that assigns its slot.
func (s *serviceImpl) CreateWalkIn(ctx context.Context, req dto.WalkInRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.CreateWalkIn")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	watchman, err := s.watchman.Current(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to resolve watchman: %w", err)
	}

	org, err := s.orgRepo.GetByID(ctx, watchman.OrganizationID)
	if err != nil {
		log.Error().Err(err).Str("organizationID", watchman.OrganizationID).Msg("failed to get organization")

		return res, fmt.Errorf("failed to get organization: %w", err)
	}

	if org.ID == "" || !org.IsActive {
		return res, model.ErrOrganizationNotFound
	}

	now := s.clock()
	if err = model.ValidateWindow(now, req.End, now, s.policy); err != nil {
		return res, err
	}

	booking := model.Booking{
		ID:               uuid.NewString(),
		UserID:           walkInUserID + "-" + uuid.NewString(),
		OrganizationID:   org.ID,
		VehicleNumber:    dto.NormalizeVehicleNumber(req.VehicleNumber),
		UserType:         model.UserTypeWalkIn,
		BookingStartTime: now,
		BookingEndTime:   req.End,
		BookingStatus:    model.StatusConfirmed,
		Metadata:         gModel.NewMetadata(watchman.ID, now),
	}
	booking.Amount, booking.PaymentStatus = model.Price(model.UserTypeWalkIn, now, req.End, org.MemberParkingFree, org.VisitorHourlyRate)

	activate := func(ctx context.Context, tx *sqlx.Tx, booking *model.Booking) error {
		if _, err := booking.Activate(now, watchman.ID); err != nil {
			return err
		}

		if err := s.repo.UpdateTx(ctx, tx, *booking); err != nil {
			return fmt.Errorf("failed to activate walk-in: %w", err)
		}

		return s.appendEvent(ctx, tx, booking.ID, model.StatusConfirmed, model.StatusActive, watchman.ID, now)
	}

	booking, _, err = s.place(ctx, booking, paymentModel.MethodCash, activate)
	if err != nil {
		return res, err
	}

	s.afterCommit(ctx, booking, constant.Empty)

	go s.publishQR(context.WithoutCancel(ctx), booking)

	res.FromModel(booking)

	return res, nil
}

// place assigns a slot and persists the booking, its first event and its
// pending charge in the reservation's transaction. then, when given, runs in
// that same transaction.
func (s *serviceImpl) place(
	ctx context.Context,
	booking model.Booking,
	method string,
	then func(ctx context.Context, tx *sqlx.Tx, booking *model.Booking) error,
) (model.Booking, paymentModel.Payment, error) {
	var charge paymentModel.Payment

	qrToken, err := s.signer.Sign(booking.ID, booking.OrganizationID, booking.BookingEndTime)
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to sign booking token")

		return booking, charge, fmt.Errorf("failed to sign booking token: %w", err)
	}

	booking.QRToken = qrToken

	window := assignmentModel.Window{Start: booking.BookingStartTime, End: booking.BookingEndTime}

	_, err = s.assignor.Assign(ctx, booking.OrganizationID, window, func(ctx context.Context, tx *sqlx.Tx, assignment assignmentModel.Assignment) error {
		booking.LotID.String = assignment.LotID
		booking.LotID.Valid = true
		booking.SlotNumber = assignment.SlotNumber

		if err := s.repo.InsertTx(ctx, tx, booking); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		if err := s.appendEvent(ctx, tx, booking.ID, constant.Empty, model.StatusConfirmed, booking.CreatedBy, booking.CreatedAt); err != nil {
			return err
		}

		if booking.PaymentStatus == model.PaymentPending {
			charge = newPayment(booking.ID, booking.Amount, paymentModel.TypeBooking, method, booking.CreatedBy, booking.CreatedAt)

			if err := s.paymentRepo.InsertTx(ctx, tx, charge); err != nil {
				return fmt.Errorf("failed to insert booking charge: %w", err)
			}
		}

		if then != nil {
			return then(ctx, tx, &booking)
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("organizationID", booking.OrganizationID).Msg("failed to place booking")

		return booking, charge, fmt.Errorf("failed to place booking: %w", err)
	}

	// Online charges go to the gateway; a cash charge is settled at the gate.
	if method != paymentModel.MethodOnline {
		charge = paymentModel.Payment{}
	}

	return booking, charge, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		if err = s.authorize(ctx, res.UserID, res.OrganizationID); err != nil {
			return dto.BookingResponse{}, err
		}

		return res, nil
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if err = s.authorize(ctx, booking.UserID, booking.OrganizationID); err != nil {
		return res, err
	}

	res.FromModel(booking)

	// A live booking can change under a concurrent transition, so only
	// bookings that can no longer change are cached.
	if !booking.IsSettled() {
		return res, nil
	}

	if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save booking to cache")
	}

	return res, nil
}

// QRCode renders the booking token for display at the gate.
func (s *serviceImpl) QRCode(ctx context.Context, id string) (res []byte, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.QRCode")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = s.authorize(ctx, booking.UserID, booking.OrganizationID); err != nil {
		return nil, err
	}

	if booking.IsTerminal() {
		return nil, model.ErrTokenExpired
	}

	return s.qr.Render(ctx, booking.QRToken) //nolint:wrapcheck
}

// ActiveBookings lists the organization's live bookings, optionally narrowed to some live statuses.
func (s *serviceImpl) ActiveBookings(ctx context.Context, organizationID string, statuses []string, params gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ActiveBookings")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = s.watchman.Authorize(ctx, organizationID); err != nil {
		return res, fmt.Errorf("failed to authorize caller: %w", err)
	}

	if len(statuses) == 0 {
		statuses = model.LiveStatuses
	}

	for _, status := range statuses {
		if !slices.Contains(model.LiveStatuses, status) {
			return res, failure.BadRequestFromString(fmt.Sprintf("status %q is not a live booking status", status)) //nolint:wrapcheck
		}
	}

	total, err := s.repo.CountLiveByOrganization(ctx, organizationID, statuses)
	if err != nil {
		log.Error().Err(err).Str("organizationID", organizationID).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetLiveByOrganization(ctx, organizationID, statuses, params)
	if err != nil {
		log.Error().Err(err).Str("organizationID", organizationID).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	return res, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, model.ErrBookingNotFound
	}

	return booking, nil
}

// authorize lets the booking holder through, and watchmen or admins for the booking's organization.
func (s *serviceImpl) authorize(ctx context.Context, userID, organizationID string) error {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	if role == constant.RoleUser || role == constant.Empty {
		if caller, _ := ctx.Value(constant.ContextKeyUserID).(string); caller == constant.Empty || caller != userID {
			return model.ErrNotOwner
		}

		return nil
	}

	return s.watchman.Authorize(ctx, organizationID) //nolint:wrapcheck
}

func (s *serviceImpl) appendEvent(ctx context.Context, tx *sqlx.Tx, bookingID, from, to, actor string, at time.Time) error {
	err := s.repo.AppendEventTx(ctx, tx, model.Event{
		ID:         uuid.NewString(),
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		OccurredAt: at,
	})
	if err != nil {
		return fmt.Errorf("failed to append booking event: %w", err)
	}

	return nil
}

func newPayment(bookingID string, amount float64, paymentType, method, actor string, at time.Time) paymentModel.Payment {
	return paymentModel.Payment{
		ID:            uuid.NewString(),
		BookingID:     bookingID,
		Amount:        amount,
		PaymentType:   paymentType,
		PaymentStatus: paymentModel.StatusPending,
		PaymentMethod: method,
		TransactionID: uuid.NewString(),
		Metadata:      gModel.NewMetadata(actor, at),
	}
}

// afterCommit publishes the booking's lifecycle events and drops its cached
// read. It runs only once the transaction is durable; a failed publish is logged.
func (s *serviceImpl) afterCommit(ctx context.Context, booking model.Booking, from string) {
	c := context.WithoutCancel(ctx)

	for _, status := range transitions(from, booking) {
		snapshot := booking
		snapshot.BookingStatus = status

		var event dto.LifecycleEvent
		event.FromModel(snapshot, snapshot.ModifiedBy, snapshot.ModifiedAt)

		if err := s.publisher.PublishJSON(c, dto.RoutingKey(status), event); err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Str("status", status).Msg("failed to publish lifecycle event")
		}
	}

	if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, booking.ID)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking from cache")
	}
}

// transitions lists the statuses a booking passed through since from. A new
// walk-in passes through confirmed on its way to active.
func transitions(from string, booking model.Booking) []string {
	if from == constant.Empty && booking.BookingStatus != model.StatusConfirmed {
		return []string{model.StatusConfirmed, booking.BookingStatus}
	}

	if from == booking.BookingStatus {
		return nil
	}

	return []string{booking.BookingStatus}
}

func (s *serviceImpl) requestPayment(ctx context.Context, charge paymentModel.Payment) {
	msg := kafka.Message{
		Key: charge.BookingID,
		Value: paymentDto.PaymentRequest{
			BookingID:     charge.BookingID,
			Amount:        charge.Amount,
			TransactionID: charge.TransactionID,
		},
	}

	if err := s.kafka.SendMessages(context.WithoutCancel(ctx), s.cfg.Kafka.Topics.PaymentRequests, msg); err != nil {
		log.Error().Err(err).Str("bookingID", charge.BookingID).Msg("failed to request payment")
	}
}

func (s *serviceImpl) publishQR(ctx context.Context, booking model.Booking) {
	url, err := s.qr.Publish(ctx, booking.ID, booking.QRToken)
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to publish qr image")

		return
	}

	if url == constant.Empty {
		return
	}

	if err := s.repo.UpdateQRImageURL(ctx, booking.ID, url); err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to store qr image url")

		return
	}

	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetBooking, booking.ID)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking from cache")
	}
}
