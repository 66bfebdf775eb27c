package dto

// VerifyRequest identifies the booking at the gate, by scanned token or typed id.
type VerifyRequest struct {
	Token     string `json:"token"      validate:"required_without=BookingID"`
	BookingID string `json:"booking_id" validate:"required_without=Token"`
}
