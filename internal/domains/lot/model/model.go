package model

import (
	"parking/shared/model"
)

const (
	TableName  = "parking_lots"
	EntityName = "parking_lot"

	FieldID             = "id"
	FieldOrganizationID = "organization_id"
	FieldName           = "name"
	FieldTotalSlots     = "total_slots"
	FieldAvailableSlots = "available_slots"
	FieldPriorityOrder  = "priority_order"
	FieldIsActive       = "is_active"
)

// ParkingLot is the authoritative capacity unit: 0 <= AvailableSlots <= TotalSlots.
type ParkingLot struct {
	ID             string `db:"id"`
	OrganizationID string `db:"organization_id"`
	Name           string `db:"name"`
	TotalSlots     int    `db:"total_slots"`
	AvailableSlots int    `db:"available_slots"`
	PriorityOrder  int    `db:"priority_order"`
	IsActive       bool   `db:"is_active"`
	model.Metadata
}

func (l ParkingLot) Occupied() int {
	return l.TotalSlots - l.AvailableSlots
}
