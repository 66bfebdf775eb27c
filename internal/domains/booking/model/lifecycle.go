package model

import (
	"database/sql"
	"parking/shared"
	"time"
)

// Policy holds the time rules applied when a booking is created or cancelled.
type Policy struct {
	MaxAdvance   time.Duration
	PastGrace    time.Duration
	CancelCutoff time.Duration
}

// PenaltyPolicy prices an overstay at exit.
type PenaltyPolicy interface {
	OverstayMinutes(end, exit time.Time) int
	Penalty(overstayMinutes int, hourlyRate float64, member bool) float64
}

// ValidateWindow rejects a window before anything is reserved.
func ValidateWindow(start, end, now time.Time, policy Policy) error {
	if !start.Before(end) {
		return ErrInvalidWindow
	}

	if start.After(now.Add(policy.MaxAdvance)) {
		return ErrWindowTooFarAhead
	}

	if start.Before(now.Add(-policy.PastGrace)) {
		return ErrWindowInPast
	}

	return nil
}

// Price returns the booking charge and its initial payment status. Members of
// an organization with free member parking pay nothing; everyone else,
// walk-ins included, pays the visitor hourly rate pro rata.
func Price(userType string, start, end time.Time, memberParkingFree bool, hourlyRate float64) (float64, string) {
	if userType == UserTypeMember && memberParkingFree {
		return 0, PaymentCompleted
	}

	amount := shared.RoundMoney(end.Sub(start).Hours() * hourlyRate)
	if amount <= 0 {
		return 0, PaymentCompleted
	}

	return amount, PaymentPending
}

// Activate records entry. Activating an active booking is a no-op so the
// watchman scan and the auto-activation sweep can race safely.
func (b *Booking) Activate(now time.Time, actor string) (bool, error) {
	switch b.BookingStatus {
	case StatusActive:
		return false, nil
	case StatusConfirmed:
	default:
		return false, ErrNotConfirmed
	}

	if now.Before(b.BookingStartTime) {
		return false, ErrEntryTooEarly
	}

	b.EntryTime = sql.NullTime{Time: now, Valid: true}
	b.BookingStatus = StatusActive
	b.Touch(actor, now)

	return true, nil
}

// Exit completes an active booking, or marks it overstay when it leaves after
// the booked end. Exiting a booking that already exited is a no-op.
func (b *Booking) Exit(now time.Time, actor string, hourlyRate float64, policy PenaltyPolicy) (bool, error) {
	switch b.BookingStatus {
	case StatusCompleted, StatusOverstay:
		return false, nil
	case StatusActive:
	default:
		return false, ErrNotActive
	}

	b.ExitTime = sql.NullTime{Time: now, Valid: true}
	b.Touch(actor, now)

	if !now.After(b.BookingEndTime) {
		b.BookingStatus = StatusCompleted

		return true, nil
	}

	b.BookingStatus = StatusOverstay
	b.OverstayMinutes = policy.OverstayMinutes(b.BookingEndTime, now)
	b.PenaltyAmount = policy.Penalty(b.OverstayMinutes, hourlyRate, b.UserType == UserTypeMember)

	return true, nil
}

// Cancel is allowed only while confirmed, and not inside the cutoff before start.
func (b *Booking) Cancel(now time.Time, actor string, cutoff time.Duration) error {
	if b.BookingStatus != StatusConfirmed {
		return ErrAlreadyStarted
	}

	if cutoff > 0 && !now.Before(b.BookingStartTime.Add(-cutoff)) {
		return ErrAlreadyStarted
	}

	b.BookingStatus = StatusCancelled
	b.CancelledBy = sql.NullString{String: actor, Valid: true}
	b.Touch(actor, now)

	return nil
}

// DurationMinutes is the time between entry and exit, or 0 before both are known.
func (b Booking) DurationMinutes() int {
	if !b.EntryTime.Valid || !b.ExitTime.Valid {
		return 0
	}

	return int(b.ExitTime.Time.Sub(b.EntryTime.Time).Minutes())
}
