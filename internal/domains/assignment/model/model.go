package model

import (
	"net/http"
	"parking/shared/failure"
	"time"
)

var (
	ErrNoCapacity = failure.New(http.StatusConflict, "no_capacity", "no parking capacity left in this organization")

	// ErrAssignmentInconsistency means capacity was reserved but every slot
	// number in the lot is held by a live booking.
	ErrAssignmentInconsistency = failure.New(http.StatusInternalServerError, "assignment_inconsistency", "slot assignment inconsistency")
)

// Window is the requested parking interval, start inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Assignment is a reserved slot. It only exists inside the transaction that reserved it.
type Assignment struct {
	LotID          string
	OrganizationID string
	SlotNumber     int
}
