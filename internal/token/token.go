// Package token issues and validates the signed bearer tokens that carry an
// authenticated identity between requests. Tokens are HS256 JWTs; expiry is
// the only invalidation mechanism, there is no revocation list.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"twin-dashboard/internal/model"
)

// Claims is the identity resolved from a validated token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// Service signs and validates access tokens. Issuance and validation are
// pure functions of (payload, secret, clock); the service holds no mutable
// state and is safe for concurrent use.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Tests use it to fast-forward past
// token expiry without sleeping.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TTL reports the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the identity, valid from now until
// now + TTL.
func (s *Service) Issue(user model.User) (string, error) {
	now := s.now().UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate decodes and verifies a presented token. The three rejection
// reasons are distinguished so the resource gate can log which one occurred,
// even though all of them map to the same unauthorized response.
func (s *Service) Validate(raw string) (Claims, error) {
	parsed, err := jwt.Parse(raw,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, model.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, model.ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, model.ErrTokenExpired
		default:
			return Claims{}, model.ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return Claims{}, model.ErrTokenMalformed
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, model.ErrTokenMalformed
	}

	claims := Claims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)

	if claims.UserID == "" {
		return Claims{}, model.ErrTokenMalformed
	}

	return claims, nil
}
