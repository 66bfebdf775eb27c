package dto

import (
	"parking/internal/domains/payment/model"
	gDto "parking/shared/dto"
)

// PaymentResult is the gateway's verdict on one charge, delivered over Kafka or the webhook.
type PaymentResult struct {
	BookingID     string `json:"booking_id"     validate:"required"`
	Status        string `json:"status"         validate:"required,oneof=completed failed"`
	TransactionID string `json:"transaction_id" validate:"required"`
}

// PaymentRequest asks the gateway to charge a visitor booking online.
type PaymentRequest struct {
	BookingID     string  `json:"booking_id"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
}

type CashPaymentRequest struct {
	BookingID string  `json:"booking_id" validate:"required"`
	Amount    float64 `json:"amount"     validate:"gt=0"`
}

type PaymentResponse struct {
	ID            string  `json:"id"`
	BookingID     string  `json:"booking_id"`
	Amount        float64 `json:"amount"`
	PaymentType   string  `json:"payment_type"`
	PaymentStatus string  `json:"payment_status"`
	PaymentMethod string  `json:"payment_method"`
	TransactionID string  `json:"transaction_id"`
	WatchmanID    string  `json:"watchman_id,omitempty"`
	gDto.Metadata
}

func (r *PaymentResponse) FromModel(m model.Payment) {
	r.ID = m.ID
	r.BookingID = m.BookingID
	r.Amount = m.Amount
	r.PaymentType = m.PaymentType
	r.PaymentStatus = m.PaymentStatus
	r.PaymentMethod = m.PaymentMethod
	r.TransactionID = m.TransactionID
	r.WatchmanID = m.WatchmanID.String
	r.Metadata.FromModel(m.Metadata)
}
