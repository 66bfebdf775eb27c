package model

import (
	"database/sql"
	"parking/shared/model"
)

const (
	TableName  = "payments"
	EntityName = "payment"

	FieldID            = "id"
	FieldBookingID     = "booking_id"
	FieldAmount        = "amount"
	FieldPaymentType   = "payment_type"
	FieldPaymentStatus = "payment_status"
	FieldPaymentMethod = "payment_method"
	FieldTransactionID = "transaction_id"
	FieldWatchmanID    = "watchman_id"
)

const (
	TypeBooking = "booking"
	TypePenalty = "penalty"

	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	MethodOnline = "online"
	MethodCash   = "cash"
)

// Payment is immutable once created except for pending -> completed|failed.
type Payment struct {
	ID            string         `db:"id"`
	BookingID     string         `db:"booking_id"`
	Amount        float64        `db:"amount"`
	PaymentType   string         `db:"payment_type"`
	PaymentStatus string         `db:"payment_status"`
	PaymentMethod string         `db:"payment_method"`
	TransactionID string         `db:"transaction_id"`
	WatchmanID    sql.NullString `db:"watchman_id"`
	model.Metadata
}

func (p Payment) IsPending() bool {
	return p.PaymentStatus == StatusPending
}
