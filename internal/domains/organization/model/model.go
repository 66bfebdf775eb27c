package model

import (
	"parking/shared/model"
)

const (
	TableName  = "organizations"
	EntityName = "organization"

	FieldID                = "id"
	FieldName              = "name"
	FieldTotalSlots        = "total_slots"
	FieldAvailableSlots    = "available_slots"
	FieldMemberParkingFree = "member_parking_free"
	FieldVisitorHourlyRate = "visitor_hourly_rate"
	FieldIsActive          = "is_active"
)

// Organization counters are a projection of its active lots and are never
// read when deciding capacity.
type Organization struct {
	ID                string  `db:"id"`
	Name              string  `db:"name"`
	TotalSlots        int     `db:"total_slots"`
	AvailableSlots    int     `db:"available_slots"`
	MemberParkingFree bool    `db:"member_parking_free"`
	VisitorHourlyRate float64 `db:"visitor_hourly_rate"`
	IsActive          bool    `db:"is_active"`
	model.Metadata
}
