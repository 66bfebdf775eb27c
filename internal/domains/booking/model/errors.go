package model

import (
	"net/http"
	"parking/shared/failure"
)

// Validation errors are raised before any state is touched.
var (
	ErrInvalidWindow     = failure.New(http.StatusBadRequest, "invalid_window", "booking start must be before its end")
	ErrWindowTooFarAhead = failure.New(http.StatusBadRequest, "window_too_far_ahead", "booking starts too far in the future")
	ErrWindowInPast      = failure.New(http.StatusBadRequest, "window_in_past", "booking start is in the past")
	ErrAmountMismatch    = failure.New(http.StatusBadRequest, "amount_mismatch", "cash amount does not match the outstanding charge")
)

// State errors.
var (
	ErrNotConfirmed    = failure.New(http.StatusConflict, "not_confirmed", "booking is not confirmed")
	ErrAlreadyStarted  = failure.New(http.StatusConflict, "already_started", "booking can no longer be cancelled")
	ErrNotActive       = failure.New(http.StatusConflict, "not_active", "booking is not active")
	ErrEntryTooEarly   = failure.New(http.StatusConflict, "entry_too_early", "booking window has not started yet")
	ErrNothingToSettle = failure.New(http.StatusConflict, "nothing_to_settle", "booking has no outstanding charge")
	ErrNotOwner        = failure.New(http.StatusForbidden, "not_owner", "booking belongs to another user")
)

// Lookup and verification errors.
var (
	ErrBookingNotFound      = failure.New(http.StatusNotFound, "booking_not_found", "booking not found")
	ErrOrganizationNotFound = failure.New(http.StatusNotFound, "organization_not_found", "organization not found")
	ErrPaymentNotFound      = failure.New(http.StatusNotFound, "payment_not_found", "payment not found")
	ErrTokenNotFound        = failure.New(http.StatusNotFound, "token_not_found", "booking token not recognized")
	ErrTokenExpired         = failure.New(http.StatusGone, "token_expired", "booking token has expired")
)
