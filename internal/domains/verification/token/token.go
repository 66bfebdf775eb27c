// Package token mints and verifies the signed credential encoded in a booking's QR code.
package token

import (
	"errors"
	"fmt"
	"parking/config"
	"parking/internal/domains/booking/model"
	"parking/shared/timezone"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	issuer          = "parking-engine"
	defaultTTLHours = 24
)

// Claims bind a token to one booking. The token stays valid until TTL after the booking ends.
type Claims struct {
	BookingID      string `json:"bid"`
	OrganizationID string `json:"oid"`
	jwt.RegisteredClaims
}

type Signer interface {
	Sign(bookingID, organizationID string, bookingEnd time.Time) (string, error)
	Parse(token string) (Claims, error)
}

type signerImpl struct {
	secret []byte
	ttl    time.Duration
	clock  timezone.Clock
}

func New(cfg *config.Config, clock timezone.Clock) Signer {
	secret := cfg.QR.Secret
	if secret == "" {
		secret = cfg.JWT.AccessSecret
	}

	if secret == "" {
		log.Warn().Msg("No QR secret configured, using an ephemeral one; issued QR codes will not survive a restart")

		secret = uuid.NewString()
	}

	ttlHours := cfg.QR.TTLHours
	if ttlHours <= 0 {
		ttlHours = defaultTTLHours
	}

	return &signerImpl{
		secret: []byte(secret),
		ttl:    time.Duration(ttlHours) * time.Hour,
		clock:  clock,
	}
}

func (s *signerImpl) Sign(bookingID, organizationID string, bookingEnd time.Time) (string, error) {
	claims := Claims{
		BookingID:      bookingID,
		OrganizationID: organizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   bookingID,
			IssuedAt:  jwt.NewNumericDate(s.clock()),
			ExpiresAt: jwt.NewNumericDate(bookingEnd.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign booking token: %w", err)
	}

	return signed, nil
}

// Parse checks the signature before trusting the embedded booking id.
func (s *signerImpl) Parse(token string) (Claims, error) {
	claims := Claims{}

	parsed, err := jwt.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims, model.ErrTokenExpired
		}

		return claims, model.ErrTokenNotFound
	}

	if !parsed.Valid || claims.BookingID == "" {
		return claims, model.ErrTokenNotFound
	}

	return claims, nil
}
