package dto

import (
	lotModel "parking/internal/domains/lot/model"
	orgModel "parking/internal/domains/organization/model"
	gDto "parking/shared/dto"
)

type ResizeRequest struct {
	TotalSlots int `json:"total_slots" validate:"gte=0"`
}

type LotResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
	OccupiedSlots  int    `json:"occupied_slots"`
	PriorityOrder  int    `json:"priority_order"`
	IsActive       bool   `json:"is_active"`
	gDto.Metadata
}

func (r *LotResponse) FromModel(m lotModel.ParkingLot) {
	r.ID = m.ID
	r.OrganizationID = m.OrganizationID
	r.Name = m.Name
	r.TotalSlots = m.TotalSlots
	r.AvailableSlots = m.AvailableSlots
	r.OccupiedSlots = m.Occupied()
	r.PriorityOrder = m.PriorityOrder
	r.IsActive = m.IsActive
	r.Metadata.FromModel(m.Metadata)
}

// SnapshotResponse reports capacity computed from the lots alongside the stored
// organization projection, which may lag until the next reconciliation.
type SnapshotResponse struct {
	OrganizationID      string        `json:"organization_id"`
	Name                string        `json:"name"`
	TotalSlots          int           `json:"total_slots"`
	AvailableSlots      int           `json:"available_slots"`
	ProjectedTotal      int           `json:"projected_total_slots"`
	ProjectedAvailable  int           `json:"projected_available_slots"`
	ProjectionIsCurrent bool          `json:"projection_is_current"`
	Lots                []LotResponse `json:"lots"`
}

func (r *SnapshotResponse) FromModels(org orgModel.Organization, lots []lotModel.ParkingLot) {
	r.OrganizationID = org.ID
	r.Name = org.Name
	r.ProjectedTotal = org.TotalSlots
	r.ProjectedAvailable = org.AvailableSlots

	r.Lots = make([]LotResponse, len(lots))
	for i, lot := range lots {
		r.Lots[i].FromModel(lot)

		r.TotalSlots += lot.TotalSlots
		r.AvailableSlots += lot.AvailableSlots
	}

	r.ProjectionIsCurrent = r.TotalSlots == r.ProjectedTotal && r.AvailableSlots == r.ProjectedAvailable
}
