// Package token issues and verifies the signed license tokens handed
// out on activation. Tokens are HS256 JWTs binding a HWID to an
// expiration instant; verification is stateless and never consults the
// registry, so a removed HWID's already-issued tokens stay valid until
// they expire on their own.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hwidlock.io/actserver/internal/expiry"
)

var (
	// ErrExpired means the signature checked out but the token is past
	// its expiration.
	ErrExpired = errors.New("token expired")

	// ErrSignature means the token was not signed with our secret.
	ErrSignature = errors.New("token signature mismatch")

	// ErrMalformed means the token could not be parsed at all.
	ErrMalformed = errors.New("token malformed")
)

// Claims is the signed payload of a license token.
type Claims struct {
	HWID string `json:"hwid"`
	jwt.RegisteredClaims
}

// Service signs and verifies license tokens with a shared symmetric
// secret.
type Service struct {
	secret []byte

	// DefaultTTL is the token lifetime substituted when the HWID never
	// expires. Tokens always carry a finite validity window, whatever
	// the HWID's own expiration policy.
	DefaultTTL time.Duration

	now func() time.Time
}

func NewService(secret string) *Service {
	return &Service{
		secret:     []byte(secret),
		DefaultTTL: 24 * time.Hour,
		now:        time.Now,
	}
}

// Issue mints a token for the given HWID. The token expires at the
// HWID's expiration instant, or after DefaultTTL when the HWID never
// expires.
func (s *Service) Issue(hwid string, exp expiry.Expiry) (string, error) {
	now := s.now()

	expiresAt, ok := exp.Time()
	if !ok {
		expiresAt = now.Add(s.DefaultTTL)
	}

	claims := &Claims{
		HWID: hwid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a token's signature and expiration, in that order: a
// well-signed but stale token reports ErrExpired, never ErrSignature.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
