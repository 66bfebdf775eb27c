package dto

import (
	"net/http"
	"parking/shared/constant"
	"strconv"
	"strings"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// Sortable maps the sort keys a listing accepts to the qualified column it
// orders by. Keys outside the map are ignored.
type Sortable map[string]string

// FromRequest reads paging and sorting from the query string. Page and limit
// default when absent and limit is capped at constant.MaxValueLimit.
func (q *QueryParams) FromRequest(r *http.Request, sortable Sortable) {
	query := r.URL.Query()

	q.Page = positiveOr(query.Get(constant.RequestParamPage), constant.DefaultValuePage)
	q.Limit = min(positiveOr(query.Get(constant.RequestParamLimit), constant.DefaultValueLimit), constant.MaxValueLimit)

	if column, ok := sortable[query.Get(constant.RequestParamSortBy)]; ok {
		q.SortBy = column
		q.SortDir = SortDirAsc

		if strings.EqualFold(query.Get(constant.RequestParamSortDir), SortDirDesc) {
			q.SortDir = SortDirDesc
		}
	}
}

func positiveOr(raw string, fallback int) int {
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		return value
	}

	return fallback
}
