package payment_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"parking/infras/otel/mocks"
	bookingMocks "parking/internal/domains/booking/mocks"
	bookingModel "parking/internal/domains/booking/model"
	"parking/internal/domains/payment/model/dto"
	watchmanModel "parking/internal/domains/watchman/model"
	"parking/internal/handlers/payment"
)

func serve(svc *bookingMocks.MockBookingService, method, path string, body io.Reader) *httptest.ResponseRecorder {
	handler := payment.New(svc, mocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, body))

	return recorder
}

func TestHandler_RecordCash(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		called   bool
		wantCode int
	}{
		{name: "recorded", body: `{"booking_id":"booking-1","amount":100}`, called: true, wantCode: http.StatusCreated},
		{name: "zero amount", body: `{"booking_id":"booking-1","amount":0}`, wantCode: http.StatusBadRequest},
		{name: "wrong amount", body: `{"booking_id":"booking-1","amount":90}`, err: bookingModel.ErrAmountMismatch, called: true, wantCode: http.StatusBadRequest},
		{name: "nothing owed", body: `{"booking_id":"booking-1","amount":100}`, err: bookingModel.ErrNothingToSettle, called: true, wantCode: http.StatusConflict},
		{name: "other organization", body: `{"booking_id":"booking-1","amount":100}`, err: watchmanModel.ErrWrongOrganization, called: true, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := bookingMocks.NewMockBookingService(ctrl)

			if tt.called {
				svc.EXPECT().RecordCash(gomock.Any(), gomock.AssignableToTypeOf(dto.CashPaymentRequest{})).
					Return(dto.PaymentResponse{ID: "payment-1", WatchmanID: "watchman-1"}, tt.err)
			}

			rec := serve(svc, http.MethodPost, "/payments/cash", strings.NewReader(tt.body))

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandler_PaymentResult(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		called   bool
		wantCode int
	}{
		{name: "applied", body: `{"booking_id":"booking-1","status":"completed","transaction_id":"tx-1"}`, called: true, wantCode: http.StatusOK},
		{name: "unknown status", body: `{"booking_id":"booking-1","status":"refunded","transaction_id":"tx-1"}`, wantCode: http.StatusBadRequest},
		{name: "unknown charge", body: `{"booking_id":"booking-1","status":"failed","transaction_id":"tx-9"}`, err: bookingModel.ErrPaymentNotFound, called: true, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := bookingMocks.NewMockBookingService(ctrl)

			if tt.called {
				svc.EXPECT().ApplyPaymentResult(gomock.Any(), gomock.AssignableToTypeOf(dto.PaymentResult{})).Return(tt.err)
			}

			rec := serve(svc, http.MethodPost, "/payments/results", strings.NewReader(tt.body))

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
