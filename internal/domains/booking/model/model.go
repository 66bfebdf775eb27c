package model

import (
	"database/sql"
	"parking/shared/model"
	"time"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID               = "id"
	FieldUserID           = "user_id"
	FieldOrganizationID   = "organization_id"
	FieldLotID            = "lot_id"
	FieldSlotNumber       = "slot_number"
	FieldVehicleNumber    = "vehicle_number"
	FieldUserType         = "user_type"
	FieldBookingStartTime = "booking_start_time"
	FieldBookingEndTime   = "booking_end_time"
	FieldAmount           = "amount"
	FieldPaymentStatus    = "payment_status"
	FieldBookingStatus    = "booking_status"
	FieldEntryTime        = "entry_time"
	FieldExitTime         = "exit_time"
	FieldOverstayMinutes  = "overstay_minutes"
	FieldPenaltyAmount    = "penalty_amount"
	FieldQRToken          = "qr_token"
	FieldQRImageURL       = "qr_image_url"
	FieldCancelledBy      = "cancelled_by"
)

const (
	UserTypeMember  = "organization_member"
	UserTypeVisitor = "visitor"
	UserTypeWalkIn  = "walk_in"
)

const (
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusOverstay  = "overstay"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// LiveStatuses hold a slot.
var LiveStatuses = []string{StatusConfirmed, StatusActive}

// Booking is never deleted; cancelled, completed and overstay are terminal.
type Booking struct {
	ID               string         `db:"id"`
	UserID           string         `db:"user_id"`
	OrganizationID   string         `db:"organization_id"`
	LotID            sql.NullString `db:"lot_id"`
	SlotNumber       int            `db:"slot_number"`
	VehicleNumber    string         `db:"vehicle_number"`
	UserType         string         `db:"user_type"`
	BookingStartTime time.Time      `db:"booking_start_time"`
	BookingEndTime   time.Time      `db:"booking_end_time"`
	Amount           float64        `db:"amount"`
	PaymentStatus    string         `db:"payment_status"`
	BookingStatus    string         `db:"booking_status"`
	EntryTime        sql.NullTime   `db:"entry_time"`
	ExitTime         sql.NullTime   `db:"exit_time"`
	OverstayMinutes  int            `db:"overstay_minutes"`
	PenaltyAmount    float64        `db:"penalty_amount"`
	QRToken          string         `db:"qr_token"`
	QRImageURL       sql.NullString `db:"qr_image_url"`
	CancelledBy      sql.NullString `db:"cancelled_by"`
	model.Metadata
}

func (b Booking) IsLive() bool {
	return b.BookingStatus == StatusConfirmed || b.BookingStatus == StatusActive
}

func (b Booking) IsTerminal() bool {
	return !b.IsLive()
}

// IsSettled reports whether nothing can change the booking any more: it was
// cancelled, or it exited with nothing left to pay.
func (b Booking) IsSettled() bool {
	switch b.BookingStatus {
	case StatusCancelled:
		return true
	case StatusCompleted, StatusOverstay:
		return b.PaymentStatus == PaymentCompleted
	default:
		return false
	}
}

// HoldsSlot reports whether the booking counts against a lot's capacity.
func (b Booking) HoldsSlot() bool {
	return b.LotID.Valid && b.IsLive()
}

const (
	EventTableName  = "booking_events"
	EventEntityName = "booking_event"
)

// Event is one lifecycle transition. The history is append-only.
type Event struct {
	ID         string    `db:"id"`
	BookingID  string    `db:"booking_id"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	Actor      string    `db:"actor"`
	OccurredAt time.Time `db:"occurred_at"`
}
