package dto_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parking/shared/constant"
	"parking/shared/dto"
	"parking/shared/model"
	"parking/shared/timezone"
)

func TestMetadata_FromModel(t *testing.T) {
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	metadata := dto.Metadata{}
	metadata.FromModel(model.Metadata{CreatedAt: createdAt, CreatedBy: "user-1", ModifiedBy: "system"})

	assert.Equal(t, timezone.Format(createdAt, constant.DateFormat), metadata.CreatedAt)
	assert.Empty(t, metadata.ModifiedAt)
	assert.Equal(t, "user-1", metadata.CreatedBy)
	assert.Equal(t, "system", metadata.ModifiedBy)
}

func TestQueryParams_FromRequest(t *testing.T) {
	sortable := dto.Sortable{"start": "bookings.booking_start_time"}

	tests := []struct {
		name     string
		query    string
		expected dto.QueryParams
	}{
		{
			name:     "defaults",
			query:    "",
			expected: dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "explicit paging and sort",
			query:    "page=3&limit=20&sort_by=start&sort_dir=desc",
			expected: dto.QueryParams{Page: 3, Limit: 20, SortBy: "bookings.booking_start_time", SortDir: dto.SortDirDesc},
		},
		{
			name:     "sort direction defaults to ascending",
			query:    "sort_by=start",
			expected: dto.QueryParams{Page: 1, Limit: constant.DefaultValueLimit, SortBy: "bookings.booking_start_time", SortDir: dto.SortDirAsc},
		},
		{
			name:     "unknown sort key is ignored",
			query:    "sort_by=id%3BDROP%20TABLE%20bookings&sort_dir=DESC",
			expected: dto.QueryParams{Page: 1, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "invalid numbers fall back",
			query:    "page=-2&limit=abc",
			expected: dto.QueryParams{Page: 1, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "limit is capped",
			query:    "limit=100000",
			expected: dto.QueryParams{Page: 1, Limit: constant.MaxValueLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/organizations/org-1/bookings/active?"+tt.query, nil)

			params := dto.QueryParams{}
			params.FromRequest(req, sortable)

			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestFilter_GetWhereClause(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "equality",
			filter:    dto.Filter{Field: "lot_id", Value: "lot-a", Operator: dto.FilterOperatorEq, Table: "bookings"},
			wantWhere: "bookings.lot_id = :lot_id",
			wantArgs:  map[string]any{"lot_id": "lot-a"},
		},
		{
			name:      "custom argument name",
			filter:    dto.Filter{ArgName: "window_end", Field: "booking_start_time", Value: at, Operator: dto.FilterOperatorLess},
			wantWhere: "booking_start_time < :window_end",
			wantArgs:  map[string]any{"window_end": at},
		},
		{
			name:      "in list",
			filter:    dto.Filter{Field: "booking_status", Value: []string{"confirmed", "active"}, Operator: dto.FilterOperatorIn},
			wantWhere: "booking_status IN (:booking_status_0, :booking_status_1)",
			wantArgs:  map[string]any{"booking_status_0": "confirmed", "booking_status_1": "active"},
		},
		{
			name:      "empty in list matches nothing",
			filter:    dto.Filter{Field: "booking_status", Value: []string{}, Operator: dto.FilterOperatorIn},
			wantWhere: "FALSE",
			wantArgs:  map[string]any{},
		},
		{
			name:      "null check",
			filter:    dto.Filter{Field: "exit_time", Operator: dto.FilterIsNull, Table: "bookings"},
			wantWhere: "bookings.exit_time IS NULL",
			wantArgs:  map[string]any{},
		},
		{
			name:      "unknown operator",
			filter:    dto.Filter{Field: "name", Value: "x", Operator: "like"},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Filters: []any{
			dto.Filter{Field: "organization_id", Value: "org-1", Operator: dto.FilterOperatorEq},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{ArgName: "first", Field: "booking_status", Value: "confirmed", Operator: dto.FilterOperatorEq},
					dto.Filter{ArgName: "second", Field: "booking_status", Value: "active", Operator: dto.FilterOperatorEq},
				},
			},
			dto.Filter{Field: "ignored", Operator: "unknown"},
		},
	}

	where, args := group.GetWhereClause()

	assert.Equal(t, "(organization_id = :organization_id AND (booking_status = :first OR booking_status = :second))", where)
	assert.Equal(t, map[string]any{"organization_id": "org-1", "first": "confirmed", "second": "active"}, args)

	empty := dto.FilterGroup{}
	where, _ = empty.GetWhereClause()
	assert.Empty(t, where)
}
