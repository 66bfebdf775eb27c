package response_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"parking/shared/constant"
	"parking/shared/failure"
	"parking/transport/http/response"
)

func TestWithError(t *testing.T) {
	full := failure.New(http.StatusConflict, "capacity_exhausted", "parking lot is full")

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "wrapped failure",
			err:      fmt.Errorf("failed to reserve: %w", full),
			wantCode: http.StatusConflict,
			wantBody: `{"error":"parking lot is full","kind":"capacity_exhausted"}`,
		},
		{
			name:     "plain error is hidden",
			err:      errors.New("pq: relation does not exist"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal Server Error","kind":"internal"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			response.WithError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, constant.ContentTypeJSON, rec.Header().Get(constant.RequestHeaderContentType))
		})
	}
}

func TestWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	response.WithJSON(rec, http.StatusCreated, map[string]string{"id": "booking-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"booking-1"}}`, rec.Body.String())
}

func TestWithPNG(t *testing.T) {
	rec := httptest.NewRecorder()
	response.WithPNG(rec, []byte{0x89, 'P', 'N', 'G'})

	assert.Equal(t, constant.ContentTypePNG, rec.Header().Get(constant.RequestHeaderContentType))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes())
}
