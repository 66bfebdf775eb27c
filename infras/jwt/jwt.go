// Package jwt validates the HS256 access tokens minted by the identity
// service. Tokens carry the caller's id, role and organization.
package jwt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"parking/config"
	"parking/shared/constant"
	"parking/shared/timezone"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaim  = errors.New("invalid token claim")
	ErrInvalidHeader = errors.New("authorization header must be a bearer token")
)

const (
	bearerScheme = "bearer"

	// Tolerated clock skew between the identity service and this one.
	leeway = 30 * time.Second
)

var knownRoles = []string{constant.RoleUser, constant.RoleWatchman, constant.RoleAdmin}

// Claims are issued by the external identity service. OrganizationID is the
// organization the user is a member of, or the one a watchman guards.
type Claims struct {
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

type JWT interface {
	ValidateToken(tokenString string) (*Claims, error)
	GenerateToken(userID, role, organizationID string, ttl time.Duration) (string, error)
}

type Service struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func New(cfg *config.Config) JWT {
	return &Service{
		secret: []byte(cfg.JWT.AccessSecret),
		issuer: cfg.App.Name,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(leeway),
			jwt.WithTimeFunc(timezone.Now),
		),
	}
}

// GenerateToken signs an access token. Production tokens come from the
// identity service; this serves tooling and tests sharing the secret.
func (s *Service) GenerateToken(userID, role, organizationID string, ttl time.Duration) (string, error) {
	now := timezone.Now()

	claims := Claims{
		UserID:         userID,
		Role:           role,
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken rejects tokens without a user, or with a role this engine
// does not serve. The system role is never accepted from a token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.UserID == "" || !slices.Contains(knownRoles, claims.Role):
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

// ExtractTokenFromHeader accepts "Bearer <token>" with any casing of the scheme.
func ExtractTokenFromHeader(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrInvalidHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidHeader
	}

	return token, nil
}
