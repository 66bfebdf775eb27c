package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"parking/config"
	"parking/infras/otel/mocks"
	"parking/infras/rabbitmq"
	rabbitMocks "parking/infras/rabbitmq/mocks"
	assignmentModel "parking/internal/domains/assignment/model"
	assignmentService "parking/internal/domains/assignment/service"
	"parking/internal/domains/booking/model"
	"parking/internal/domains/booking/model/dto"
	"parking/internal/domains/booking/service"
	capacityService "parking/internal/domains/capacity/service"
	lotModel "parking/internal/domains/lot/model"
	orgModel "parking/internal/domains/organization/model"
	paymentModel "parking/internal/domains/payment/model"
	paymentDto "parking/internal/domains/payment/model/dto"
	"parking/internal/domains/penalty"
	"parking/internal/domains/verification/token"
	watchmanModel "parking/internal/domains/watchman/model"
	watchmanService "parking/internal/domains/watchman/service"
	"parking/internal/testutil"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	"parking/shared/failure"
	"parking/shared/locker"
	"parking/shared/timezone"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	store     *testutil.Store
	clock     *testutil.Clock
	publisher *testutil.Publisher
	kafka     *testutil.Kafka
	cache     *testutil.Cache
	cfg       *config.Config
	svc       service.Booking
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{}
	cfg.Booking.MaxAdvanceDays = 30
	cfg.Booking.PastGraceMinutes = 5
	cfg.Scheduler.ActivationBatchSize = 100
	cfg.Kafka.Topics.PaymentRequests = "payment.requests"
	cfg.QR.Secret = "test-secret"

	h := &harness{
		store:     testutil.NewStore(),
		clock:     testutil.NewClock(baseTime),
		publisher: &testutil.Publisher{},
		kafka:     &testutil.Kafka{},
		cache:     testutil.NewCache(),
		cfg:       cfg,
	}

	h.build(h.publisher)

	h.store.PutOrganization(orgModel.Organization{
		ID:                "org-1",
		Name:              "Acme Tower",
		TotalSlots:        3,
		AvailableSlots:    3,
		MemberParkingFree: true,
		VisitorHourlyRate: 50,
		IsActive:          true,
	})
	h.putLot("lot-a", "org-1", 2, 1)
	h.putLot("lot-b", "org-1", 1, 2)

	h.store.PutWatchman(watchmanModel.Watchman{ID: "watchman-1", OrganizationID: "org-1", IsActive: true})
	h.store.PutWatchman(watchmanModel.Watchman{ID: "watchman-2", OrganizationID: "org-2", IsActive: true})

	return h
}

// build wires the service over the harness store, publishing through publisher.
func (h *harness) build(publisher rabbitmq.Publisher) {
	otl := mocks.NewOtel()
	lock := locker.NewLocal(5 * time.Second)
	clock := timezone.Clock(h.clock.Now)

	ledger := capacityService.New(h.store.LotRepository(), h.store.OrganizationRepository(), h.store, lock, clock, otl)
	assignor := assignmentService.New(h.store.LotRepository(), h.store.BookingRepository(), ledger, h.store, lock, otl)

	h.svc = service.New(service.Dependencies{
		Repo:        h.store.BookingRepository(),
		OrgRepo:     h.store.OrganizationRepository(),
		PaymentRepo: h.store.PaymentRepository(),
		Assignor:    assignor,
		Ledger:      ledger,
		Watchman:    watchmanService.New(h.store.WatchmanRepository(), otl),
		Signer:      token.New(h.cfg, clock),
		QR:          testutil.QR{},
		Penalty:     penalty.New(h.cfg),
		Transactor:  h.store,
		Locker:      lock,
		Publisher:   publisher,
		Kafka:       h.kafka,
		Cache:       h.cache,
		Clock:       clock,
		Config:      h.cfg,
		Otel:        otl,
	})
}

func (h *harness) putLot(id, organizationID string, total, priority int) {
	h.store.PutLot(lotModel.ParkingLot{
		ID:             id,
		OrganizationID: organizationID,
		Name:           id,
		TotalSlots:     total,
		AvailableSlots: total,
		PriorityOrder:  priority,
		IsActive:       true,
	})
}

func userCtx(userID, organizationID string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleUser)

	return context.WithValue(ctx, constant.ContextKeyOrganizationID, organizationID)
}

func watchmanCtx(watchmanID string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, watchmanID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleWatchman)
}

func visitorRequest(start, end time.Time) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		OrganizationID: "org-1",
		VehicleNumber:  "b 1234 xyz",
		Start:          start,
		End:            end,
	}
}

func (h *harness) createVisitor(t *testing.T, userID string, start, end time.Time) dto.BookingResponse {
	t.Helper()

	res, err := h.svc.Create(userCtx(userID, "org-other"), visitorRequest(start, end))
	require.NoError(t, err)

	return res
}

func TestBookingService_Create_VisitorPricing(t *testing.T) {
	h := newHarness(t)

	res := h.createVisitor(t, "user-1", baseTime, baseTime.Add(2*time.Hour))

	assert.Equal(t, model.UserTypeVisitor, res.UserType)
	assert.Equal(t, 100.0, res.Amount)
	assert.Equal(t, model.PaymentPending, res.PaymentStatus)
	assert.Equal(t, model.StatusConfirmed, res.BookingStatus)
	assert.Equal(t, "B 1234 XYZ", res.VehicleNumber)
	assert.Equal(t, "lot-a", res.LotID)
	assert.Equal(t, 1, res.SlotNumber)
	assert.NotEmpty(t, res.QRToken)

	assert.Equal(t, 1, h.store.Lot("lot-a").AvailableSlots)

	payments := h.store.PaymentsOf(res.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, paymentModel.TypeBooking, payments[0].PaymentType)
	assert.Equal(t, paymentModel.StatusPending, payments[0].PaymentStatus)
	assert.Equal(t, paymentModel.MethodOnline, payments[0].PaymentMethod)

	messages := h.kafka.Messages("payment.requests")
	require.Len(t, messages, 1)
	assert.Equal(t, paymentDto.PaymentRequest{
		BookingID:     res.ID,
		Amount:        100,
		TransactionID: payments[0].TransactionID,
	}, messages[0].Value)

	events := h.store.EventsOf(res.ID)
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].FromStatus)
	assert.Equal(t, model.StatusConfirmed, events[0].ToStatus)

	assert.Equal(t, []string{"booking.confirmed"}, h.publisher.RoutingKeys())
}

func TestBookingService_Create_FreeMember(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Create(userCtx("member-1", "org-1"), visitorRequest(baseTime, baseTime.Add(3*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, model.UserTypeMember, res.UserType)
	assert.Equal(t, 0.0, res.Amount)
	assert.Equal(t, model.PaymentCompleted, res.PaymentStatus)
	assert.Empty(t, h.store.PaymentsOf(res.ID))
	assert.Empty(t, h.kafka.Messages("payment.requests"))
}

func TestBookingService_Create_Validation(t *testing.T) {
	tests := []struct {
		name     string
		req      dto.CreateBookingRequest
		wantErr  error
		wantCode int
	}{
		{
			name:     "start after end",
			req:      visitorRequest(baseTime.Add(2*time.Hour), baseTime.Add(time.Hour)),
			wantErr:  model.ErrInvalidWindow,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "too far ahead",
			req:      visitorRequest(baseTime.Add(31*24*time.Hour), baseTime.Add(31*24*time.Hour+time.Hour)),
			wantErr:  model.ErrWindowTooFarAhead,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "in the past",
			req:      visitorRequest(baseTime.Add(-10*time.Minute), baseTime.Add(time.Hour)),
			wantErr:  model.ErrWindowInPast,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown organization",
			req: dto.CreateBookingRequest{
				OrganizationID: "org-missing",
				VehicleNumber:  "B1234XYZ",
				Start:          baseTime,
				End:            baseTime.Add(time.Hour),
			},
			wantErr:  model.ErrOrganizationNotFound,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.svc.Create(userCtx("user-1", ""), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, failure.GetCode(err))
			assert.Equal(t, 2, h.store.Lot("lot-a").AvailableSlots)
			assert.Empty(t, h.publisher.RoutingKeys())
		})
	}
}

func TestBookingService_Create_FillOrder(t *testing.T) {
	h := newHarness(t)

	var placed []string

	for i := range 3 {
		res := h.createVisitor(t, fmt.Sprintf("user-%d", i), baseTime, baseTime.Add(time.Hour))
		placed = append(placed, fmt.Sprintf("%s/%d", res.LotID, res.SlotNumber))
	}

	assert.Equal(t, []string{"lot-a/1", "lot-a/2", "lot-b/1"}, placed)

	_, err := h.svc.Create(userCtx("user-late", ""), visitorRequest(baseTime, baseTime.Add(time.Hour)))
	assert.ErrorIs(t, err, assignmentModel.ErrNoCapacity)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
}

func TestBookingService_Create_ReusesLowestFreedSlot(t *testing.T) {
	h := newHarness(t)

	first := h.createVisitor(t, "user-1", baseTime, baseTime.Add(time.Hour))
	h.createVisitor(t, "user-2", baseTime, baseTime.Add(time.Hour))

	_, err := h.svc.Cancel(userCtx("user-1", ""), first.ID)
	require.NoError(t, err)

	res := h.createVisitor(t, "user-3", baseTime, baseTime.Add(time.Hour))

	assert.Equal(t, "lot-a", res.LotID)
	assert.Equal(t, 1, res.SlotNumber)
}

func TestBookingService_Create_ConcurrentSingleSlot(t *testing.T) {
	h := newHarness(t)

	h.store.PutOrganization(orgModel.Organization{ID: "org-2", VisitorHourlyRate: 10, IsActive: true})
	h.putLot("lot-single", "org-2", 1, 1)

	const callers = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			req := dto.CreateBookingRequest{
				OrganizationID: "org-2",
				VehicleNumber:  "B1234XYZ",
				Start:          baseTime.Add(time.Duration(i) * time.Minute),
				End:            baseTime.Add(2 * time.Hour),
			}

			_, err := h.svc.Create(userCtx(fmt.Sprintf("user-%d", i), ""), req)

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				succeeded++

				return
			}

			assert.ErrorIs(t, err, assignmentModel.ErrNoCapacity)
			rejected++
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, rejected)
	assert.Equal(t, 0, h.store.Lot("lot-single").AvailableSlots)
	assert.Equal(t, 1, h.store.LiveInLot("lot-single"))
}

func TestBookingService_ConcurrentLifecycleConservesCapacity(t *testing.T) {
	h := newHarness(t)

	h.store.PutOrganization(orgModel.Organization{ID: "org-3", VisitorHourlyRate: 10, IsActive: true})
	h.putLot("lot-big", "org-3", 5, 1)

	const callers = 20

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slots []int
	)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			userID := fmt.Sprintf("user-%d", i)

			res, err := h.svc.Create(userCtx(userID, ""), dto.CreateBookingRequest{
				OrganizationID: "org-3",
				VehicleNumber:  "B1234XYZ",
				Start:          baseTime.Add(time.Hour),
				End:            baseTime.Add(2 * time.Hour),
			})
			if err != nil {
				return
			}

			// Every other winner gives its slot back straight away.
			if i%2 == 0 {
				_, err = h.svc.Cancel(userCtx(userID, ""), res.ID)
				assert.NoError(t, err)

				return
			}

			mu.Lock()
			slots = append(slots, res.SlotNumber)
			mu.Unlock()
		}()
	}

	wg.Wait()

	lot := h.store.Lot("lot-big")
	live := h.store.LiveInLot("lot-big")

	assert.Equal(t, lot.TotalSlots, lot.AvailableSlots+live)
	assert.GreaterOrEqual(t, lot.AvailableSlots, 0)
	assert.LessOrEqual(t, lot.AvailableSlots, lot.TotalSlots)

	sort.Ints(slots)

	for i := 1; i < len(slots); i++ {
		assert.NotEqual(t, slots[i-1], slots[i], "slot %d assigned twice", slots[i])
	}

	for _, slot := range slots {
		assert.GreaterOrEqual(t, slot, 1)
		assert.LessOrEqual(t, slot, lot.TotalSlots)
	}
}

func TestBookingService_Cancel(t *testing.T) {
	h := newHarness(t)

	booking := h.createVisitor(t, "user-1", baseTime.Add(time.Hour), baseTime.Add(3*time.Hour))
	before := h.store.Lot("lot-a").AvailableSlots

	res, err := h.svc.Cancel(userCtx("user-1", ""), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, res.BookingStatus)
	assert.Equal(t, model.PaymentFailed, res.PaymentStatus)
	assert.Equal(t, "user-1", res.CancelledBy)
	assert.Equal(t, before+1, h.store.Lot("lot-a").AvailableSlots)

	payments := h.store.PaymentsOf(booking.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, paymentModel.StatusFailed, payments[0].PaymentStatus)

	events := h.store.EventsOf(booking.ID)
	require.Len(t, events, 2)
	assert.Equal(t, model.StatusConfirmed, events[1].FromStatus)
	assert.Equal(t, model.StatusCancelled, events[1].ToStatus)

	assert.Equal(t, []string{"booking.confirmed", "booking.cancelled"}, h.publisher.RoutingKeys())

	_, err = h.svc.Cancel(userCtx("user-1", ""), booking.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyStarted)
	assert.Equal(t, before+1, h.store.Lot("lot-a").AvailableSlots)
}

func TestBookingService_Cancel_Authorization(t *testing.T) {
	h := newHarness(t)

	booking := h.createVisitor(t, "user-1", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

	_, err := h.svc.Cancel(userCtx("user-2", ""), booking.ID)
	assert.ErrorIs(t, err, model.ErrNotOwner)

	_, err = h.svc.Cancel(watchmanCtx("watchman-2"), booking.ID)
	assert.ErrorIs(t, err, watchmanModel.ErrWrongOrganization)

	res, err := h.svc.Cancel(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "watchman-1", res.CancelledBy)

	_, err = h.svc.Cancel(userCtx("user-1", ""), "missing")
	assert.ErrorIs(t, err, model.ErrBookingNotFound)
}

func TestBookingService_Cancel_AfterEntry(t *testing.T) {
	h := newHarness(t)

	booking := h.createVisitor(t, "user-1", baseTime, baseTime.Add(time.Hour))

	_, err := h.svc.Activate(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)

	_, err = h.svc.Cancel(userCtx("user-1", ""), booking.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyStarted)
	assert.Equal(t, 1, h.store.Lot("lot-a").AvailableSlots)
}

func TestBookingService_Activate(t *testing.T) {
	h := newHarness(t)

	booking := h.createVisitor(t, "user-1", baseTime.Add(30*time.Minute), baseTime.Add(2*time.Hour))

	_, err := h.svc.Activate(watchmanCtx("watchman-1"), booking.ID)
	assert.ErrorIs(t, err, model.ErrEntryTooEarly)

	h.clock.Advance(30 * time.Minute)

	res, err := h.svc.Activate(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, res.BookingStatus)
	assert.NotEmpty(t, res.EntryTime)

	// A second scan is a no-op.
	again, err := h.svc.Activate(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, res.EntryTime, again.EntryTime)
	assert.Len(t, h.store.EventsOf(booking.ID), 2)
	assert.Equal(t, []string{"booking.confirmed", "booking.activated"}, h.publisher.RoutingKeys())
	assert.Equal(t, 1, h.store.Lot("lot-a").AvailableSlots)
}

func TestBookingService_ActivateDue(t *testing.T) {
	h := newHarness(t)

	due := h.createVisitor(t, "user-1", baseTime, baseTime.Add(2*time.Hour))
	scanned := h.createVisitor(t, "user-2", baseTime, baseTime.Add(2*time.Hour))
	later := h.createVisitor(t, "user-3", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

	_, err := h.svc.Activate(watchmanCtx("watchman-1"), scanned.ID)
	require.NoError(t, err)

	h.clock.Advance(10 * time.Minute)

	activated, err := h.svc.ActivateDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, activated)

	assert.Equal(t, model.StatusActive, h.store.Booking(due.ID).BookingStatus)
	assert.Equal(t, model.StatusConfirmed, h.store.Booking(later.ID).BookingStatus)

	events := h.store.EventsOf(due.ID)
	require.Len(t, events, 2)
	assert.Equal(t, constant.RoleSystem, events[1].Actor)

	activated, err = h.svc.ActivateDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, activated)
}

func TestBookingService_Exit_Overstay(t *testing.T) {
	h := newHarness(t)

	booking := h.createVisitor(t, "user-1", baseTime, baseTime.Add(time.Hour))

	_, err := h.svc.Activate(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)

	h.clock.Set(baseTime.Add(time.Hour + 75*time.Minute))

	receipt, err := h.svc.Exit(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOverstay, receipt.BookingStatus)
	assert.Equal(t, 75, receipt.OverstayMinutes)
	assert.Equal(t, 100.0, receipt.PenaltyAmount)
	assert.Equal(t, 135, receipt.DurationMinutes)
	assert.Equal(t, model.PaymentPending, receipt.PaymentStatus)
	assert.Equal(t, 2, h.store.Lot("lot-a").AvailableSlots)

	payments := h.store.PaymentsOf(booking.ID)
	require.Len(t, payments, 2)
	assert.Equal(t, paymentModel.TypePenalty, payments[1].PaymentType)
	assert.Equal(t, paymentModel.MethodCash, payments[1].PaymentMethod)
	assert.Equal(t, 100.0, payments[1].Amount)

	// Exiting again returns the same receipt without releasing twice.
	again, err := h.svc.Exit(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt, again)
	assert.Equal(t, 2, h.store.Lot("lot-a").AvailableSlots)
	assert.Len(t, h.store.PaymentsOf(booking.ID), 2)
}

func TestBookingService_Exit_OnTime(t *testing.T) {
	h := newHarness(t)

	booking, err := h.svc.Create(userCtx("member-1", "org-1"), visitorRequest(baseTime, baseTime.Add(2*time.Hour)))
	require.NoError(t, err)

	_, err = h.svc.Exit(watchmanCtx("watchman-1"), booking.ID)
	assert.ErrorIs(t, err, model.ErrNotActive)

	_, err = h.svc.Activate(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)

	h.clock.Advance(90 * time.Minute)

	receipt, err := h.svc.Exit(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, receipt.BookingStatus)
	assert.Equal(t, 90, receipt.DurationMinutes)
	assert.Equal(t, 0, receipt.OverstayMinutes)
	assert.Equal(t, 0.0, receipt.PenaltyAmount)
	assert.Equal(t, model.PaymentCompleted, receipt.PaymentStatus)
	assert.Equal(t, 2, h.store.Lot("lot-a").AvailableSlots)
	assert.Equal(t, []string{"booking.confirmed", "booking.activated", "booking.completed"}, h.publisher.RoutingKeys())
}

func TestBookingService_ApplyPaymentResult(t *testing.T) {
	t.Run("completed charge settles the booking once", func(t *testing.T) {
		h := newHarness(t)

		booking := h.createVisitor(t, "user-1", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		charge := h.store.PaymentsOf(booking.ID)[0]

		result := paymentDto.PaymentResult{
			BookingID:     booking.ID,
			Status:        paymentModel.StatusCompleted,
			TransactionID: charge.TransactionID,
		}

		require.NoError(t, h.svc.ApplyPaymentResult(context.Background(), result))
		assert.Equal(t, model.PaymentCompleted, h.store.Booking(booking.ID).PaymentStatus)
		assert.Equal(t, paymentModel.StatusCompleted, h.store.PaymentsOf(booking.ID)[0].PaymentStatus)

		// Redelivery, even with a contradicting status, changes nothing.
		result.Status = paymentModel.StatusFailed
		require.NoError(t, h.svc.ApplyPaymentResult(context.Background(), result))
		assert.Equal(t, model.PaymentCompleted, h.store.Booking(booking.ID).PaymentStatus)
		assert.Equal(t, model.StatusConfirmed, h.store.Booking(booking.ID).BookingStatus)
	})

	t.Run("failed charge cancels a confirmed booking", func(t *testing.T) {
		h := newHarness(t)

		booking := h.createVisitor(t, "user-1", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		charge := h.store.PaymentsOf(booking.ID)[0]

		err := h.svc.ApplyPaymentResult(context.Background(), paymentDto.PaymentResult{
			BookingID:     booking.ID,
			Status:        paymentModel.StatusFailed,
			TransactionID: charge.TransactionID,
		})
		require.NoError(t, err)

		stored := h.store.Booking(booking.ID)
		assert.Equal(t, model.StatusCancelled, stored.BookingStatus)
		assert.Equal(t, model.PaymentFailed, stored.PaymentStatus)
		assert.Equal(t, constant.RoleSystem, stored.CancelledBy.String)
		assert.Equal(t, 2, h.store.Lot("lot-a").AvailableSlots)
		assert.Equal(t, []string{"booking.confirmed", "booking.cancelled"}, h.publisher.RoutingKeys())
	})

	t.Run("failed charge of a parked booking keeps it active", func(t *testing.T) {
		h := newHarness(t)

		booking := h.createVisitor(t, "user-1", baseTime, baseTime.Add(2*time.Hour))
		charge := h.store.PaymentsOf(booking.ID)[0]

		_, err := h.svc.Activate(watchmanCtx("watchman-1"), booking.ID)
		require.NoError(t, err)

		err = h.svc.ApplyPaymentResult(context.Background(), paymentDto.PaymentResult{
			BookingID:     booking.ID,
			Status:        paymentModel.StatusFailed,
			TransactionID: charge.TransactionID,
		})
		require.NoError(t, err)

		stored := h.store.Booking(booking.ID)
		assert.Equal(t, model.StatusActive, stored.BookingStatus)
		assert.Equal(t, model.PaymentFailed, stored.PaymentStatus)
		assert.Equal(t, 1, h.store.Lot("lot-a").AvailableSlots)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		h := newHarness(t)

		booking := h.createVisitor(t, "user-1", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

		err := h.svc.ApplyPaymentResult(context.Background(), paymentDto.PaymentResult{
			BookingID:     booking.ID,
			Status:        paymentModel.StatusCompleted,
			TransactionID: "txn-unknown",
		})
		assert.ErrorIs(t, err, model.ErrPaymentNotFound)
	})
}

func TestBookingService_WalkInAndCash(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.CreateWalkIn(watchmanCtx("watchman-1"), dto.WalkInRequest{
		VehicleNumber: "d 4321 abc",
		End:           baseTime.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, model.UserTypeWalkIn, res.UserType)
	assert.Equal(t, model.StatusActive, res.BookingStatus)
	assert.NotEmpty(t, res.EntryTime)
	assert.Equal(t, 100.0, res.Amount)
	assert.Equal(t, "lot-a", res.LotID)
	assert.Empty(t, h.kafka.Messages("payment.requests"))
	assert.Equal(t, []string{"booking.confirmed", "booking.activated"}, h.publisher.RoutingKeys())
	assert.Len(t, h.store.EventsOf(res.ID), 2)

	_, err = h.svc.RecordCash(watchmanCtx("watchman-2"), paymentDto.CashPaymentRequest{BookingID: res.ID, Amount: 100})
	assert.ErrorIs(t, err, watchmanModel.ErrWrongOrganization)

	_, err = h.svc.RecordCash(watchmanCtx("watchman-1"), paymentDto.CashPaymentRequest{BookingID: res.ID, Amount: 80})
	assert.ErrorIs(t, err, model.ErrAmountMismatch)

	payment, err := h.svc.RecordCash(watchmanCtx("watchman-1"), paymentDto.CashPaymentRequest{BookingID: res.ID, Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, paymentModel.StatusCompleted, payment.PaymentStatus)
	assert.Equal(t, paymentModel.MethodCash, payment.PaymentMethod)
	assert.Equal(t, "watchman-1", payment.WatchmanID)
	assert.Equal(t, model.PaymentCompleted, h.store.Booking(res.ID).PaymentStatus)

	_, err = h.svc.RecordCash(watchmanCtx("watchman-1"), paymentDto.CashPaymentRequest{BookingID: res.ID, Amount: 100})
	assert.ErrorIs(t, err, model.ErrNothingToSettle)
}

func TestBookingService_WalkIn_RequiresWatchman(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CreateWalkIn(userCtx("user-1", ""), dto.WalkInRequest{
		VehicleNumber: "D4321ABC",
		End:           baseTime.Add(time.Hour),
	})
	assert.ErrorIs(t, err, watchmanModel.ErrNotWatchman)
	assert.Equal(t, 2, h.store.Lot("lot-a").AvailableSlots)
}

func TestBookingService_Get(t *testing.T) {
	h := newHarness(t)

	booking := h.createVisitor(t, "user-1", baseTime, baseTime.Add(time.Hour))

	res, err := h.svc.Get(userCtx("user-1", ""), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, res.ID)

	_, err = h.svc.Get(userCtx("user-2", ""), booking.ID)
	assert.ErrorIs(t, err, model.ErrNotOwner)

	_, err = h.svc.Get(watchmanCtx("watchman-1"), booking.ID)
	assert.NoError(t, err)

	_, err = h.svc.Get(userCtx("user-1", ""), "missing")
	assert.ErrorIs(t, err, model.ErrBookingNotFound)

	png, err := h.svc.QRCode(userCtx("user-1", ""), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.QRToken, string(png))
}

func TestBookingService_ActiveBookings(t *testing.T) {
	h := newHarness(t)

	first := h.createVisitor(t, "user-1", baseTime, baseTime.Add(time.Hour))
	h.createVisitor(t, "user-2", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
	cancelled := h.createVisitor(t, "user-3", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

	_, err := h.svc.Cancel(userCtx("user-3", ""), cancelled.ID)
	require.NoError(t, err)

	_, err = h.svc.Activate(watchmanCtx("watchman-1"), first.ID)
	require.NoError(t, err)

	res, err := h.svc.ActiveBookings(watchmanCtx("watchman-1"), "org-1", nil, gDto.QueryParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalData)
	assert.Equal(t, 1, res.TotalPage)
	require.Len(t, res.Bookings, 2)
	assert.Equal(t, first.ID, res.Bookings[0].ID)

	res, err = h.svc.ActiveBookings(watchmanCtx("watchman-1"), "org-1", []string{model.StatusActive}, gDto.QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalData)

	_, err = h.svc.ActiveBookings(watchmanCtx("watchman-1"), "org-1", []string{model.StatusCancelled}, gDto.QueryParams{})
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

	_, err = h.svc.ActiveBookings(userCtx("user-1", "org-1"), "org-1", nil, gDto.QueryParams{})
	assert.ErrorIs(t, err, watchmanModel.ErrNotWatchman)

	_, err = h.svc.ActiveBookings(watchmanCtx("watchman-2"), "org-1", nil, gDto.QueryParams{})
	assert.ErrorIs(t, err, watchmanModel.ErrWrongOrganization)
}

func TestBookingService_Get_Cache(t *testing.T) {
	h := newHarness(t)

	booking := h.createVisitor(t, "user-1", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
	key := "booking:get:" + booking.ID

	res, err := h.svc.Get(userCtx("user-1", ""), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, res.BookingStatus)
	assert.False(t, h.cache.Has(key), "a live booking must not be cached")

	// A read that raced the cancel and stored the old state.
	require.NoError(t, h.cache.Save(context.Background(), key, res, 60))

	_, err = h.svc.Cancel(userCtx("user-1", ""), booking.ID)
	require.NoError(t, err)
	assert.False(t, h.cache.Has(key), "a transition must drop the cached read")

	res, err = h.svc.Get(userCtx("user-1", ""), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.BookingStatus)
	assert.True(t, h.cache.Has(key))

	// The store changes behind the cache; hits are served from the cache.
	stored := h.store.Booking(booking.ID)
	stored.VehicleNumber = "CHANGED"
	h.store.PutBooking(stored)

	res, err = h.svc.Get(watchmanCtx("watchman-1"), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.VehicleNumber, res.VehicleNumber)

	// Hits are authorized like misses.
	_, err = h.svc.Get(userCtx("user-2", ""), booking.ID)
	assert.ErrorIs(t, err, model.ErrNotOwner)

	_, err = h.svc.Get(watchmanCtx("watchman-2"), booking.ID)
	assert.ErrorIs(t, err, watchmanModel.ErrWrongOrganization)
}

func TestBookingService_Get_CachesOnlySettled(t *testing.T) {
	h := newHarness(t)

	overstay := h.createVisitor(t, "user-1", baseTime, baseTime.Add(time.Hour))
	member, err := h.svc.Create(userCtx("member-1", "org-1"), visitorRequest(baseTime, baseTime.Add(2*time.Hour)))
	require.NoError(t, err)

	for _, id := range []string{overstay.ID, member.ID} {
		_, err = h.svc.Activate(watchmanCtx("watchman-1"), id)
		require.NoError(t, err)
	}

	h.clock.Advance(90 * time.Minute)

	for _, id := range []string{overstay.ID, member.ID} {
		_, err = h.svc.Exit(watchmanCtx("watchman-1"), id)
		require.NoError(t, err)

		_, err = h.svc.Get(watchmanCtx("watchman-1"), id)
		require.NoError(t, err)
	}

	assert.False(t, h.cache.Has("booking:get:"+overstay.ID), "an unpaid penalty can still be settled")
	assert.True(t, h.cache.Has("booking:get:"+member.ID))
}

func TestBookingService_Create_EqualPriorityPrefersLowestLotID(t *testing.T) {
	h := newHarness(t)

	h.store.PutOrganization(orgModel.Organization{ID: "org-2", VisitorHourlyRate: 10, IsActive: true})
	h.putLot("lot-z", "org-2", 1, 1)
	h.putLot("lot-c", "org-2", 1, 1)

	first, err := h.svc.Create(userCtx("user-1", ""), dto.CreateBookingRequest{
		OrganizationID: "org-2",
		VehicleNumber:  "B1234XY",
		Start:          baseTime,
		End:            baseTime.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "lot-c", first.LotID)

	second, err := h.svc.Create(userCtx("user-2", ""), dto.CreateBookingRequest{
		OrganizationID: "org-2",
		VehicleNumber:  "B5678XY",
		Start:          baseTime,
		End:            baseTime.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "lot-z", second.LotID)
}

func TestBookingService_Create_AssignmentInconsistency(t *testing.T) {
	h := newHarness(t)

	h.store.PutOrganization(orgModel.Organization{ID: "org-2", VisitorHourlyRate: 10, IsActive: true})
	h.putLot("lot-z", "org-2", 1, 1)

	// The ledger shows a free slot, yet slot 1 is held by a live booking.
	h.store.PutBooking(model.Booking{
		ID:               "booking-held",
		UserID:           "user-0",
		OrganizationID:   "org-2",
		LotID:            sql.NullString{String: "lot-z", Valid: true},
		SlotNumber:       1,
		BookingStartTime: baseTime,
		BookingEndTime:   baseTime.Add(time.Hour),
		BookingStatus:    model.StatusActive,
	})

	_, err := h.svc.Create(userCtx("user-1", ""), dto.CreateBookingRequest{
		OrganizationID: "org-2",
		VehicleNumber:  "B1234XY",
		Start:          baseTime,
		End:            baseTime.Add(time.Hour),
	})
	assert.ErrorIs(t, err, assignmentModel.ErrAssignmentInconsistency)
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))

	assert.Equal(t, 1, h.store.Lot("lot-z").AvailableSlots)
	assert.Equal(t, 1, h.store.LiveInLot("lot-z"))
}

func TestBookingService_PublishFailureDoesNotFailTransition(t *testing.T) {
	h := newHarness(t)

	ctrl := gomock.NewController(t)
	publisher := rabbitMocks.NewMockPublisher(ctrl)
	publisher.EXPECT().PublishJSON(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("channel closed")).Times(2)

	h.build(publisher)

	booking := h.createVisitor(t, "user-1", baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

	res, err := h.svc.Cancel(userCtx("user-1", ""), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.BookingStatus)
	assert.Equal(t, model.StatusCancelled, h.store.Booking(booking.ID).BookingStatus)
	assert.Equal(t, 2, h.store.Lot("lot-a").AvailableSlots)
}
