// Package constant holds identifiers shared across layers: context keys,
// roles, headers, tracing scope names and query defaults.
package constant

import "time"

type contextKey string

// Request context keys set by the auth middleware.
const (
	ContextKeyUserID         contextKey = "user_id"
	ContextKeyUserRole       contextKey = "user_role"
	ContextKeyOrganizationID contextKey = "organization_id"
)

// Roles carried in access tokens. RoleSystem is also the actor recorded for
// work the engine starts itself.
const (
	RoleAdmin    = "admin"
	RoleWatchman = "watchman"
	RoleUser     = "user"
	RoleSystem   = "system"
)

const (
	RequestParamPage    = "page"
	RequestParamLimit   = "limit"
	RequestParamSortBy  = "sort_by"
	RequestParamSortDir = "sort_dir"
	RequestParamID      = "id"

	DefaultValuePage  = 1
	DefaultValueLimit = 50
	MaxValueLimit     = 200
)

// Audit columns every table carries.
const (
	FieldCreatedAt  = "created_at"
	FieldModifiedAt = "modified_at"
	FieldModifiedBy = "modified_by"
)

const PqErrorCodeUniqueViolation = "23505"

const (
	DateFormat     = time.RFC3339
	MinutesPerHour = 60
)

const (
	OtelServiceScopeName    = "service"
	OtelRepositoryScopeName = "repository"
	OtelHandlerScopeName    = "handler"
	OtelEventScopeName      = "event"
	OtelJobScopeName        = "job"
	OtelS3ScopeName         = "s3"
	OtelQueryAttributeKey   = "query"
)

const (
	RequestHeaderAuthorization      = "Authorization"
	RequestHeaderAPIKey             = "X-API-Key"
	RequestHeaderUserAgent          = "User-Agent"
	RequestHeaderContentType        = "Content-Type"
	RequestHeaderRequestID          = "X-Request-ID"
	RequestHeaderForwardedFor       = "X-Forwarded-For"
	RequestHeaderRealIP             = "X-Real-IP"
	RequestHeaderRateLimit          = "X-RateLimit-Limit"
	RequestHeaderRateLimitRemaining = "X-RateLimit-Remaining"
	RequestHeaderRateLimitWindow    = "X-RateLimit-Window"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypePNG  = "image/png"
)

const (
	ResponseErrorPrepareShutdown      = "SERVER PREPARING TO SHUT DOWN"
	ResponseErrorUnhealthy            = "SERVER UNHEALTHY"
	ResponseErrorRequestLimitExceeded = "REQUEST LIMIT EXCEEDED"
)

const (
	ServerEnvDevelopment = "development"
	ServerEnvProduction  = "production"
)

const Empty = ""
