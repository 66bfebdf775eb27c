// Package testutil provides an in-memory persistence layer for service tests
// that need real transaction and locking behaviour rather than call expectations.
package testutil

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	bookingModel "parking/internal/domains/booking/model"
	bookingRepo "parking/internal/domains/booking/repository"
	lotModel "parking/internal/domains/lot/model"
	lotRepo "parking/internal/domains/lot/repository"
	orgModel "parking/internal/domains/organization/model"
	orgRepo "parking/internal/domains/organization/repository"
	paymentModel "parking/internal/domains/payment/model"
	paymentRepo "parking/internal/domains/payment/repository"
	watchmanModel "parking/internal/domains/watchman/model"
	watchmanRepo "parking/internal/domains/watchman/repository"
	gDto "parking/shared/dto"
	"parking/shared/repository"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrUniqueViolation mirrors the partial unique indexes of the schema.
	ErrUniqueViolation = repository.ErrDuplicate
	ErrRowNotFound     = errors.New("row not found")
)

// Store keeps every table in maps. WithinTx serializes transactions and
// restores the previous state when fn fails. Methods suffixed Tx expect the
// store to be held by WithinTx; the others take the mutex themselves.
type Store struct {
	mu sync.Mutex

	Organizations map[string]orgModel.Organization
	Lots          map[string]lotModel.ParkingLot
	Bookings      map[string]bookingModel.Booking
	Payments      map[string]paymentModel.Payment
	Watchmen      map[string]watchmanModel.Watchman
	Events        []bookingModel.Event

	// FailCommit makes the next transaction fail after fn succeeded.
	FailCommit error
}

func NewStore() *Store {
	return &Store{
		Organizations: map[string]orgModel.Organization{},
		Lots:          map[string]lotModel.ParkingLot{},
		Bookings:      map[string]bookingModel.Booking{},
		Payments:      map[string]paymentModel.Payment{},
		Watchmen:      map[string]watchmanModel.Watchman{},
	}
}

type snapshot struct {
	organizations map[string]orgModel.Organization
	lots          map[string]lotModel.ParkingLot
	bookings      map[string]bookingModel.Booking
	payments      map[string]paymentModel.Payment
	events        []bookingModel.Event
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		organizations: maps.Clone(s.Organizations),
		lots:          maps.Clone(s.Lots),
		bookings:      maps.Clone(s.Bookings),
		payments:      maps.Clone(s.Payments),
		events:        slices.Clone(s.Events),
	}
}

func (s *Store) restore(snap snapshot) {
	s.Organizations = snap.organizations
	s.Lots = snap.lots
	s.Bookings = snap.bookings
	s.Payments = snap.payments
	s.Events = snap.events
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()

	if err := fn(ctx, nil); err != nil {
		s.restore(snap)

		return err
	}

	if s.FailCommit != nil {
		err := s.FailCommit
		s.FailCommit = nil
		s.restore(snap)

		return err
	}

	return nil
}

// Read runs fn with the store held, for assertions in tests.
func (s *Store) Read(fn func(s *Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s)
}

func (s *Store) PutOrganization(org orgModel.Organization) {
	s.Read(func(s *Store) { s.Organizations[org.ID] = org })
}

func (s *Store) PutLot(lot lotModel.ParkingLot) {
	s.Read(func(s *Store) { s.Lots[lot.ID] = lot })
}

func (s *Store) PutBooking(booking bookingModel.Booking) {
	s.Read(func(s *Store) { s.Bookings[booking.ID] = booking })
}

func (s *Store) PutPayment(payment paymentModel.Payment) {
	s.Read(func(s *Store) { s.Payments[payment.ID] = payment })
}

func (s *Store) PutWatchman(watchman watchmanModel.Watchman) {
	s.Read(func(s *Store) { s.Watchmen[watchman.ID] = watchman })
}

func (s *Store) Lot(id string) lotModel.ParkingLot {
	var lot lotModel.ParkingLot

	s.Read(func(s *Store) { lot = s.Lots[id] })

	return lot
}

func (s *Store) Booking(id string) bookingModel.Booking {
	var booking bookingModel.Booking

	s.Read(func(s *Store) { booking = s.Bookings[id] })

	return booking
}

func (s *Store) Organization(id string) orgModel.Organization {
	var org orgModel.Organization

	s.Read(func(s *Store) { org = s.Organizations[id] })

	return org
}

// PaymentsOf returns a booking's payments, oldest first.
func (s *Store) PaymentsOf(bookingID string) []paymentModel.Payment {
	var res []paymentModel.Payment

	s.Read(func(s *Store) { res = s.paymentsOf(bookingID, "") })

	return res
}

// EventsOf returns a booking's transitions in insertion order.
func (s *Store) EventsOf(bookingID string) []bookingModel.Event {
	var res []bookingModel.Event

	s.Read(func(s *Store) {
		for _, event := range s.Events {
			if event.BookingID == bookingID {
				res = append(res, event)
			}
		}
	})

	return res
}

// LiveInLot counts bookings holding a slot in the lot.
func (s *Store) LiveInLot(lotID string) int {
	var count int

	s.Read(func(s *Store) {
		for _, booking := range s.Bookings {
			if booking.LotID.String == lotID && booking.HoldsSlot() {
				count++
			}
		}
	})

	return count
}

func (s *Store) paymentsOf(bookingID, status string) []paymentModel.Payment {
	var res []paymentModel.Payment

	for _, payment := range s.Payments {
		if payment.BookingID == bookingID && (status == "" || payment.PaymentStatus == status) {
			res = append(res, payment)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}

		return res[i].ID < res[j].ID
	})

	return res
}

func (s *Store) OrganizationRepository() orgRepo.Organization {
	return &organizationRepo{store: s}
}

func (s *Store) LotRepository() lotRepo.Lot {
	return &parkingLotRepo{store: s}
}

func (s *Store) BookingRepository() bookingRepo.Booking {
	return &bookingStore{store: s}
}

func (s *Store) PaymentRepository() paymentRepo.Payment {
	return &paymentStore{store: s}
}

func (s *Store) WatchmanRepository() watchmanRepo.Watchman {
	return &watchmanStore{store: s}
}

type organizationRepo struct {
	store *Store
}

func (r *organizationRepo) GetByID(_ context.Context, id string) (orgModel.Organization, error) {
	return r.store.Organization(id), nil
}

func (r *organizationRepo) GetForUpdateTx(_ context.Context, _ *sqlx.Tx, id string) (orgModel.Organization, error) {
	return r.store.Organizations[id], nil
}

func (r *organizationRepo) GetActiveIDs(_ context.Context) ([]string, error) {
	var ids []string

	r.store.Read(func(s *Store) {
		for id, org := range s.Organizations {
			if org.IsActive {
				ids = append(ids, id)
			}
		}
	})

	sort.Strings(ids)

	return ids, nil
}

func (r *organizationRepo) UpdateCountersTx(_ context.Context, _ *sqlx.Tx, id string, total, available int, actor string, at time.Time) error {
	org, ok := r.store.Organizations[id]
	if !ok {
		return ErrRowNotFound
	}

	org.TotalSlots = total
	org.AvailableSlots = available
	org.Touch(actor, at)
	r.store.Organizations[id] = org

	return nil
}

type parkingLotRepo struct {
	store *Store
}

func (r *parkingLotRepo) GetByID(_ context.Context, id string) (lotModel.ParkingLot, error) {
	return r.store.Lot(id), nil
}

func (r *parkingLotRepo) GetForUpdateTx(_ context.Context, _ *sqlx.Tx, id string) (lotModel.ParkingLot, error) {
	return r.store.Lots[id], nil
}

func (r *parkingLotRepo) GetActiveByOrganization(ctx context.Context, organizationID string) ([]lotModel.ParkingLot, error) {
	var (
		res []lotModel.ParkingLot
		err error
	)

	r.store.Read(func(_ *Store) { res, err = r.GetActiveByOrganizationTx(ctx, nil, organizationID) })

	return res, err
}

func (r *parkingLotRepo) GetActiveByOrganizationTx(_ context.Context, _ *sqlx.Tx, organizationID string) ([]lotModel.ParkingLot, error) {
	var res []lotModel.ParkingLot

	for _, lot := range r.store.Lots {
		if lot.OrganizationID == organizationID && lot.IsActive {
			res = append(res, lot)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].PriorityOrder != res[j].PriorityOrder {
			return res[i].PriorityOrder < res[j].PriorityOrder
		}

		return res[i].ID < res[j].ID
	})

	return res, nil
}

func (r *parkingLotRepo) UpdateCountersTx(_ context.Context, _ *sqlx.Tx, id string, total, available int, actor string, at time.Time) error {
	lot, ok := r.store.Lots[id]
	if !ok {
		return ErrRowNotFound
	}

	lot.TotalSlots = total
	lot.AvailableSlots = available
	lot.Touch(actor, at)
	r.store.Lots[id] = lot

	return nil
}

type bookingStore struct {
	store *Store
}

func (r *bookingStore) GetByID(_ context.Context, id string) (bookingModel.Booking, error) {
	return r.store.Booking(id), nil
}

func (r *bookingStore) GetForUpdateTx(_ context.Context, _ *sqlx.Tx, id string) (bookingModel.Booking, error) {
	return r.store.Bookings[id], nil
}

func (r *bookingStore) GetLiveByLotTx(_ context.Context, _ *sqlx.Tx, lotID string) ([]bookingModel.Booking, error) {
	var res []bookingModel.Booking

	for _, booking := range r.store.Bookings {
		if booking.LotID.String == lotID && booking.IsLive() {
			res = append(res, booking)
		}
	}

	return res, nil
}

func (r *bookingStore) liveByOrganization(organizationID string, statuses []string) []bookingModel.Booking {
	var res []bookingModel.Booking

	for _, booking := range r.store.Bookings {
		if booking.OrganizationID == organizationID && slices.Contains(statuses, booking.BookingStatus) {
			res = append(res, booking)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if !res[i].BookingStartTime.Equal(res[j].BookingStartTime) {
			return res[i].BookingStartTime.Before(res[j].BookingStartTime)
		}

		return res[i].ID < res[j].ID
	})

	return res
}

func (r *bookingStore) GetLiveByOrganization(_ context.Context, organizationID string, statuses []string, params gDto.QueryParams) ([]bookingModel.Booking, error) {
	var res []bookingModel.Booking

	r.store.Read(func(_ *Store) { res = r.liveByOrganization(organizationID, statuses) })

	if params.Limit > 0 {
		page := max(params.Page, 1)
		from := min((page-1)*params.Limit, len(res))
		to := min(from+params.Limit, len(res))
		res = res[from:to]
	}

	return res, nil
}

func (r *bookingStore) CountLiveByOrganization(_ context.Context, organizationID string, statuses []string) (int, error) {
	var count int

	r.store.Read(func(_ *Store) { count = len(r.liveByOrganization(organizationID, statuses)) })

	return count, nil
}

func (r *bookingStore) GetDueForActivation(_ context.Context, now time.Time, limit int) ([]bookingModel.Booking, error) {
	var res []bookingModel.Booking

	r.store.Read(func(s *Store) {
		for _, booking := range s.Bookings {
			if booking.BookingStatus == bookingModel.StatusConfirmed && !booking.BookingStartTime.After(now) {
				res = append(res, booking)
			}
		}
	})

	sort.Slice(res, func(i, j int) bool {
		return res[i].BookingStartTime.Before(res[j].BookingStartTime)
	})

	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}

	return res, nil
}

func (r *bookingStore) InsertTx(_ context.Context, _ *sqlx.Tx, booking bookingModel.Booking) error {
	if _, ok := r.store.Bookings[booking.ID]; ok {
		return ErrUniqueViolation
	}

	if booking.HoldsSlot() {
		for _, other := range r.store.Bookings {
			if other.HoldsSlot() && other.LotID == booking.LotID && other.SlotNumber == booking.SlotNumber {
				return ErrUniqueViolation
			}
		}
	}

	r.store.Bookings[booking.ID] = booking

	return nil
}

func (r *bookingStore) UpdateTx(_ context.Context, _ *sqlx.Tx, booking bookingModel.Booking) error {
	current, ok := r.store.Bookings[booking.ID]
	if !ok {
		return ErrRowNotFound
	}

	current.BookingStatus = booking.BookingStatus
	current.PaymentStatus = booking.PaymentStatus
	current.EntryTime = booking.EntryTime
	current.ExitTime = booking.ExitTime
	current.OverstayMinutes = booking.OverstayMinutes
	current.PenaltyAmount = booking.PenaltyAmount
	current.CancelledBy = booking.CancelledBy
	current.ModifiedAt = booking.ModifiedAt
	current.ModifiedBy = booking.ModifiedBy
	r.store.Bookings[booking.ID] = current

	return nil
}

func (r *bookingStore) UpdateQRImageURL(_ context.Context, id, url string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	booking, ok := r.store.Bookings[id]
	if !ok {
		return ErrRowNotFound
	}

	booking.QRImageURL.String = url
	booking.QRImageURL.Valid = url != ""
	r.store.Bookings[id] = booking

	return nil
}

func (r *bookingStore) AppendEventTx(_ context.Context, _ *sqlx.Tx, event bookingModel.Event) error {
	r.store.Events = append(r.store.Events, event)

	return nil
}

type paymentStore struct {
	store *Store
}

func (r *paymentStore) InsertTx(_ context.Context, _ *sqlx.Tx, payment paymentModel.Payment) error {
	for _, other := range r.store.Payments {
		if other.ID == payment.ID || other.TransactionID == payment.TransactionID {
			return ErrUniqueViolation
		}
	}

	r.store.Payments[payment.ID] = payment

	return nil
}

func (r *paymentStore) GetByTransactionForUpdateTx(_ context.Context, _ *sqlx.Tx, transactionID string) (paymentModel.Payment, error) {
	for _, payment := range r.store.Payments {
		if payment.TransactionID == transactionID {
			return payment, nil
		}
	}

	return paymentModel.Payment{}, nil
}

func (r *paymentStore) GetPendingByBookingTx(_ context.Context, _ *sqlx.Tx, bookingID string) ([]paymentModel.Payment, error) {
	return r.store.paymentsOf(bookingID, paymentModel.StatusPending), nil
}

func (r *paymentStore) GetByBooking(_ context.Context, bookingID string) ([]paymentModel.Payment, error) {
	return r.store.PaymentsOf(bookingID), nil
}

func (r *paymentStore) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, id, status, actor string, at time.Time) error {
	payment, ok := r.store.Payments[id]
	if !ok {
		return ErrRowNotFound
	}

	payment.PaymentStatus = status
	payment.Touch(actor, at)
	r.store.Payments[id] = payment

	return nil
}

type watchmanStore struct {
	store *Store
}

func (r *watchmanStore) GetByID(_ context.Context, id string) (watchmanModel.Watchman, error) {
	var res watchmanModel.Watchman

	r.store.Read(func(s *Store) { res = s.Watchmen[id] })

	return res, nil
}
