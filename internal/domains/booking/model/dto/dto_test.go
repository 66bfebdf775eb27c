package dto_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parking/internal/domains/booking/model"
	"parking/internal/domains/booking/model/dto"
)

func TestNormalizeVehicleNumber(t *testing.T) {
	assert.Equal(t, "B1234XY", dto.NormalizeVehicleNumber("  b1234xy "))
}

func TestBookingResponse_FromModel(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	booking := model.Booking{
		ID:               "booking-1",
		LotID:            sql.NullString{String: "lot-a", Valid: true},
		SlotNumber:       3,
		BookingStartTime: start,
		BookingEndTime:   start.Add(2 * time.Hour),
		BookingStatus:    model.StatusConfirmed,
	}

	res := dto.BookingResponse{}
	res.FromModel(booking)

	assert.Equal(t, "lot-a", res.LotID)
	assert.Equal(t, 3, res.SlotNumber)
	assert.NotEmpty(t, res.BookingStartTime)
	assert.Empty(t, res.EntryTime)
	assert.Empty(t, res.ExitTime)
	assert.Empty(t, res.QRImageURL)
}

func TestGetBookingsResponse_FromModels(t *testing.T) {
	tests := []struct {
		name      string
		totalData int
		limit     int
		wantPages int
	}{
		{name: "exact pages", totalData: 20, limit: 10, wantPages: 2},
		{name: "partial last page", totalData: 21, limit: 10, wantPages: 3},
		{name: "nothing", totalData: 0, limit: 10, wantPages: 0},
		{name: "unlimited", totalData: 7, limit: 0, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := dto.GetBookingsResponse{}
			res.FromModels([]model.Booking{{ID: "booking-1"}}, tt.totalData, tt.limit)

			assert.Equal(t, tt.wantPages, res.TotalPage)
			assert.Equal(t, tt.totalData, res.TotalData)
			assert.Len(t, res.Bookings, 1)
		})
	}
}

func TestExitReceipt_FromModel(t *testing.T) {
	entry := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	receipt := dto.ExitReceipt{}
	receipt.FromModel(model.Booking{
		ID:              "booking-1",
		BookingStatus:   model.StatusOverstay,
		EntryTime:       sql.NullTime{Time: entry, Valid: true},
		ExitTime:        sql.NullTime{Time: entry.Add(150 * time.Minute), Valid: true},
		OverstayMinutes: 30,
		PenaltyAmount:   20,
	})

	assert.Equal(t, 150, receipt.DurationMinutes)
	assert.Equal(t, 30, receipt.OverstayMinutes)
	assert.InDelta(t, 20.0, receipt.PenaltyAmount, 0.001)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "booking.confirmed", dto.RoutingKey(model.StatusConfirmed))
	assert.Equal(t, "booking.activated", dto.RoutingKey(model.StatusActive))
	assert.Equal(t, "booking.overstay", dto.RoutingKey(model.StatusOverstay))
	assert.Equal(t, "booking.cancelled", dto.RoutingKey(model.StatusCancelled))
}
