package model

import (
	"net/http"
	"parking/shared/failure"
)

const (
	TableName  = "watchmen"
	EntityName = "watchman"

	FieldID             = "id"
	FieldOrganizationID = "organization_id"
	FieldIsActive       = "is_active"
)

var (
	ErrWrongOrganization = failure.New(http.StatusForbidden, "wrong_organization", "watchman is not authorized for this organization")
	ErrNotWatchman       = failure.New(http.StatusForbidden, "not_watchman", "caller is not an active watchman")
)

// Watchman is owned by the identity service; the engine only reads it.
type Watchman struct {
	ID             string `db:"id"`
	OrganizationID string `db:"organization_id"`
	IsActive       bool   `db:"is_active"`
}
