package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parking/config"
	"parking/infras/jwt"
	"parking/infras/otel"
	"parking/permissions"
	"parking/shared/constant"
	"parking/shared/failure"
	"parking/transport/http/response"
)

type SkipAuthKey string

const skipAuth = SkipAuthKey("skip")

type Auth interface {
	Auth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

// routePattern resolves the chi pattern (/v1/bookings/{id}) the permission
// table is keyed by. Outside a chi router it falls back to the raw path.
func routePattern(request *http.Request) string {
	rctx := chi.RouteContext(request.Context())
	if rctx == nil || rctx.Routes == nil {
		return request.URL.Path
	}

	return rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path)
}

func skipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipAuth).(bool)

	return skip
}

func deny(writer http.ResponseWriter, scope otel.Scope, err error) {
	scope.TraceError(err)
	scope.End()
	response.WithError(writer, err)
}

func pass(writer http.ResponseWriter, request *http.Request, scope otel.Scope, next http.Handler) {
	scope.End()
	next.ServeHTTP(writer, request)
}

// tokenError keeps the client message generic apart from expiry, which
// callers can act on by refreshing.
func tokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return failure.Unauthorized("Token has expired")
	case errors.Is(err, jwt.ErrInvalidClaim):
		return failure.Unauthorized("Invalid token claims")
	default:
		return failure.Unauthorized("Invalid token")
	}
}

// Auth validates the bearer token issued by the identity service and puts the
// caller's id, role and organization on the request context.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "auth.middleware")

		path := routePattern(request)

		if skipped(ctx) || (m.permission != nil && m.permission.FindPermissions(path, request.Method).Skip) {
			pass(writer, request, scope, next)

			return
		}

		scope.SetAttributes(map[string]any{
			"http.path":   path,
			"http.method": request.Method,
		})

		header := request.Header.Get(constant.RequestHeaderAuthorization)
		if header == "" {
			deny(writer, scope, failure.Unauthorized("Missing authorization header"))

			return
		}

		token, err := jwt.ExtractTokenFromHeader(header)
		if err != nil {
			deny(writer, scope, failure.Unauthorized("Invalid authorization header format"))

			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			deny(writer, scope, tokenError(err))

			return
		}

		ctx = context.WithValue(ctx, constant.ContextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, claims.Role)
		ctx = context.WithValue(ctx, constant.ContextKeyOrganizationID, claims.OrganizationID)

		pass(writer, request.WithContext(ctx), scope, next)
	})
}

// RBAC checks the caller's role against the embedded permission table. It
// runs after Auth or APIKey; API key callers carry the system role and only
// reach endpoints that list it. A missing table denies everything.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "rbac.middleware")

		if m.permission == nil {
			deny(writer, scope, failure.ForbiddenError)

			return
		}

		if m.permission.Skip {
			pass(writer, request, scope, next)

			return
		}

		role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

		permission := m.permission.FindPermissions(routePattern(request), request.Method)
		if permission.Skip || permission.Allows(role) {
			pass(writer, request, scope, next)

			return
		}

		scope.SetAttributes(map[string]any{
			"user_role":     role,
			"allowed_roles": permission.Permissions,
		})
		deny(writer, scope, failure.ForbiddenError)
	})
}

// APIKey authenticates internal callers such as the payment gateway. A request
// with a valid key skips bearer authentication and runs as the system actor.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "api_key.middleware")

		key := request.Header.Get(constant.RequestHeaderAPIKey)
		if key == "" {
			pass(writer, request.WithContext(context.WithValue(ctx, skipAuth, false)), scope, next)

			return
		}

		if m.cfg.App.APIKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.cfg.App.APIKey)) != 1 {
			deny(writer, scope, failure.ForbiddenError)

			return
		}

		ctx = context.WithValue(ctx, skipAuth, true)
		ctx = context.WithValue(ctx, constant.ContextKeyUserID, constant.RoleSystem)
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleSystem)

		pass(writer, request.WithContext(ctx), scope, next)
	})
}
