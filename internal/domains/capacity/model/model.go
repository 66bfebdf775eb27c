package model

import (
	"net/http"
	"parking/shared/failure"
)

const lockKeyPrefix = "lot:"

var (
	ErrCapacityExhausted   = failure.New(http.StatusConflict, "capacity_exhausted", "parking lot is full")
	ErrBelowOccupied       = failure.New(http.StatusConflict, "below_occupied", "new capacity is below the number of occupied slots")
	ErrLotNotFound         = failure.New(http.StatusNotFound, "lot_not_found", "parking lot not found")
	ErrOrganizationMissing = failure.New(http.StatusNotFound, "organization_not_found", "organization not found")

	// ErrLedgerInconsistency means a release would push available above total.
	// It is never clamped away.
	ErrLedgerInconsistency = failure.New(http.StatusInternalServerError, "ledger_inconsistency", "capacity ledger inconsistency")
)

// LockKey names the per-lot critical section shared by every counter mutation.
func LockKey(lotID string) string {
	return lockKeyPrefix + lotID
}
