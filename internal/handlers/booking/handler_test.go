package booking_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"parking/infras/otel/mocks"
	bookingMocks "parking/internal/domains/booking/mocks"
	"parking/internal/domains/booking/model"
	"parking/internal/domains/booking/model/dto"
	"parking/internal/handlers/booking"
	gDto "parking/shared/dto"
	"parking/transport/http/response"
)

func serve(svc *bookingMocks.MockBookingService, method, path string, body io.Reader) *httptest.ResponseRecorder {
	handler := booking.New(svc, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, body))

	return recorder
}

func TestHandler_CreateBooking(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := bookingMocks.NewMockBookingService(ctrl)

		svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req dto.CreateBookingRequest) (dto.BookingResponse, error) {
				assert.Equal(t, "org-1", req.OrganizationID)
				assert.Equal(t, "B1234XY", req.VehicleNumber)

				return dto.BookingResponse{ID: "booking-1", SlotNumber: 1, BookingStatus: model.StatusConfirmed}, nil
			})

		body := `{"organization_id":"org-1","vehicle_number":"B1234XY","start":"2025-03-10T09:00:00Z","end":"2025-03-10T11:00:00Z"}`
		rec := serve(svc, http.MethodPost, "/bookings", strings.NewReader(body))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var got response.Data[dto.BookingResponse]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "booking-1", got.Data.ID)
	})

	t.Run("invalid body never reaches the service", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := bookingMocks.NewMockBookingService(ctrl)

		rec := serve(svc, http.MethodPost, "/bookings", strings.NewReader(`{"vehicle_number":"B1234XY"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_GetBookingByID(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{name: "found", wantCode: http.StatusOK},
		{name: "foreign booking", err: model.ErrNotOwner, wantCode: http.StatusForbidden, wantKind: "not_owner"},
		{name: "unexpected", err: errors.New("connection reset"), wantCode: http.StatusInternalServerError, wantKind: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := bookingMocks.NewMockBookingService(ctrl)

			svc.EXPECT().Get(gomock.Any(), "booking-1").Return(dto.BookingResponse{ID: "booking-1"}, tt.err)

			rec := serve(svc, http.MethodGet, "/bookings/booking-1", nil)
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantKind != "" {
				var got response.Error
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, tt.wantKind, got.Kind)
			}
		})
	}
}

func TestHandler_CancelBooking(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := bookingMocks.NewMockBookingService(ctrl)

	svc.EXPECT().Cancel(gomock.Any(), "booking-1").Return(dto.BookingResponse{}, model.ErrAlreadyStarted)

	rec := serve(svc, http.MethodPost, "/bookings/booking-1/cancel", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_GetQRCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := bookingMocks.NewMockBookingService(ctrl)

	svc.EXPECT().QRCode(gomock.Any(), "booking-1").Return([]byte{0x89, 'P', 'N', 'G'}, nil)

	rec := serve(svc, http.MethodGet, "/bookings/booking-1/qr", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes())
}

func TestHandler_GetActiveBookings(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := bookingMocks.NewMockBookingService(ctrl)

	svc.EXPECT().
		ActiveBookings(gomock.Any(), "org-1", []string{"confirmed", "active"}, gomock.Any()).
		DoAndReturn(func(_ any, _ string, _ []string, params gDto.QueryParams) (dto.GetBookingsResponse, error) {
			assert.Equal(t, 2, params.Page)
			assert.Equal(t, gDto.SortDirDesc, params.SortDir)

			return dto.GetBookingsResponse{TotalData: 1, TotalPage: 1}, nil
		})

	rec := serve(svc, http.MethodGet, "/organizations/org-1/bookings/active?status=confirmed,active&page=2&sort_by=start&sort_dir=desc", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
