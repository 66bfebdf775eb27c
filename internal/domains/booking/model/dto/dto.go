package dto

import (
	"parking/internal/domains/booking/model"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	"parking/shared/timezone"
	"strings"
	"time"
)

type CreateBookingRequest struct {
	OrganizationID string    `json:"organization_id" validate:"required"`
	VehicleNumber  string    `json:"vehicle_number"  validate:"required,vehicle"`
	Start          time.Time `json:"start"           validate:"required"`
	End            time.Time `json:"end"             validate:"required"`
}

// WalkInRequest registers a vehicle at the gate; the booking starts now.
type WalkInRequest struct {
	VehicleNumber string    `json:"vehicle_number" validate:"required,vehicle"`
	End           time.Time `json:"end"            validate:"required"`
}

// NormalizeVehicleNumber upper-cases and trims a plate so lookups are stable.
func NormalizeVehicleNumber(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

type BookingResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	OrganizationID   string  `json:"organization_id"`
	LotID            string  `json:"lot_id,omitempty"`
	SlotNumber       int     `json:"slot_number"`
	VehicleNumber    string  `json:"vehicle_number"`
	UserType         string  `json:"user_type"`
	BookingStartTime string  `json:"booking_start_time"`
	BookingEndTime   string  `json:"booking_end_time"`
	Amount           float64 `json:"amount"`
	PaymentStatus    string  `json:"payment_status"`
	BookingStatus    string  `json:"booking_status"`
	EntryTime        string  `json:"entry_time,omitempty"`
	ExitTime         string  `json:"exit_time,omitempty"`
	OverstayMinutes  int     `json:"overstay_minutes"`
	PenaltyAmount    float64 `json:"penalty_amount"`
	QRToken          string  `json:"qr_token"`
	QRImageURL       string  `json:"qr_image_url,omitempty"`
	CancelledBy      string  `json:"cancelled_by,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(m model.Booking) {
	r.ID = m.ID
	r.UserID = m.UserID
	r.OrganizationID = m.OrganizationID
	r.LotID = m.LotID.String
	r.SlotNumber = m.SlotNumber
	r.VehicleNumber = m.VehicleNumber
	r.UserType = m.UserType
	r.BookingStartTime = timezone.Format(m.BookingStartTime, constant.DateFormat)
	r.BookingEndTime = timezone.Format(m.BookingEndTime, constant.DateFormat)
	r.Amount = m.Amount
	r.PaymentStatus = m.PaymentStatus
	r.BookingStatus = m.BookingStatus
	r.OverstayMinutes = m.OverstayMinutes
	r.PenaltyAmount = m.PenaltyAmount
	r.QRToken = m.QRToken
	r.QRImageURL = m.QRImageURL.String
	r.CancelledBy = m.CancelledBy.String

	if m.EntryTime.Valid {
		r.EntryTime = timezone.Format(m.EntryTime.Time, constant.DateFormat)
	}

	if m.ExitTime.Valid {
		r.ExitTime = timezone.Format(m.ExitTime.Time, constant.DateFormat)
	}

	r.Metadata.FromModel(m.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = totalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

func totalPage(totalData, limit int) int {
	if limit <= 0 {
		return 1
	}

	return (totalData + limit - 1) / limit
}

// ExitReceipt summarizes an exit for the gate.
type ExitReceipt struct {
	BookingID       string  `json:"booking_id"`
	BookingStatus   string  `json:"booking_status"`
	DurationMinutes int     `json:"duration_minutes"`
	PaymentStatus   string  `json:"payment_status"`
	OverstayMinutes int     `json:"overstay_minutes"`
	PenaltyAmount   float64 `json:"penalty_amount"`
}

func (r *ExitReceipt) FromModel(m model.Booking) {
	r.BookingID = m.ID
	r.BookingStatus = m.BookingStatus
	r.DurationMinutes = m.DurationMinutes()
	r.PaymentStatus = m.PaymentStatus
	r.OverstayMinutes = m.OverstayMinutes
	r.PenaltyAmount = m.PenaltyAmount
}

// LifecycleEvent is published on every transition.
type LifecycleEvent struct {
	BookingID      string    `json:"booking_id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	LotID          string    `json:"lot_id,omitempty"`
	SlotNumber     int       `json:"slot_number"`
	VehicleNumber  string    `json:"vehicle_number"`
	Status         string    `json:"status"`
	PenaltyAmount  float64   `json:"penalty_amount,omitempty"`
	Actor          string    `json:"actor"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (e *LifecycleEvent) FromModel(m model.Booking, actor string, at time.Time) {
	e.BookingID = m.ID
	e.OrganizationID = m.OrganizationID
	e.UserID = m.UserID
	e.LotID = m.LotID.String
	e.SlotNumber = m.SlotNumber
	e.VehicleNumber = m.VehicleNumber
	e.Status = m.BookingStatus
	e.PenaltyAmount = m.PenaltyAmount
	e.Actor = actor
	e.OccurredAt = at
}

var routingSuffixes = map[string]string{
	model.StatusActive: "activated",
}

// RoutingKey maps a booking status to its event routing key, e.g. booking.confirmed
// or booking.activated.
func RoutingKey(status string) string {
	if suffix, ok := routingSuffixes[status]; ok {
		return model.EntityName + "." + suffix
	}

	return model.EntityName + "." + status
}
