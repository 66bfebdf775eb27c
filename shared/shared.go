package shared

import (
	"context"
	"math"
	"parking/shared/constant"
	"parking/shared/dto"
	"strings"
)

const cacheKeySeparator = ":"

// BuildCacheKey joins a key prefix and its identifying parts, e.g. booking:get:<id>.
func BuildCacheKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), cacheKeySeparator)
}

// RoundMoney rounds an amount to two decimals, half away from zero.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100 //nolint:mnd
}

func FilterByID(id, fieldID, table string) dto.FilterGroup {
	return FilterByField(fieldID, id, table)
}

func FilterByField(field string, value any, table string) dto.FilterGroup {
	return dto.FilterGroup{
		Filters: []any{
			dto.Filter{
				Field:    field,
				Value:    value,
				Operator: dto.FilterOperatorEq,
				Table:    table,
			},
		},
	}
}

// SystemContext marks work started by the engine itself (sweeps, consumers)
// rather than by a request.
func SystemContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, constant.ContextKeyUserID, constant.RoleSystem)

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleSystem)
}

// Actor is the caller recorded on writes, falling back to the system.
func Actor(ctx context.Context) string {
	if actor, _ := ctx.Value(constant.ContextKeyUserID).(string); actor != "" {
		return actor
	}

	return constant.RoleSystem
}
