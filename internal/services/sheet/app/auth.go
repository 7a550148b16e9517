package app

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/dungeonsheet/internal/platform/errors"
)

// gmRole is the claim value privileged tokens must carry.
const gmRole = "gm"

// gmClaims is the internal claims type used for JWT parsing.
type gmClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// GMAuthorizer validates game-master credentials. Privileged mutations are
// rejected before any record access when the credential is missing, invalid
// or expired.
type GMAuthorizer struct {
	secret []byte
	now    func() time.Time
}

// NewGMAuthorizer creates an authorizer around a shared HS256 secret.
// Returns nil when the secret is empty; a nil authorizer disables the
// privileged routes entirely.
func NewGMAuthorizer(secret string) *GMAuthorizer {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	return &GMAuthorizer{secret: []byte(secret), now: time.Now}
}

// Validate checks a bearer token for a live gm-role credential.
func (a *GMAuthorizer) Validate(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.New(apperrors.CodeUnauthorized, "gm credential is required")
	}

	var parsed gmClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return apperrors.Wrap(apperrors.CodeUnauthorized, "gm credential is expired", err)
		}
		return apperrors.Wrap(apperrors.CodeUnauthorized, "gm credential is invalid", err)
	}
	if parsed.Role != gmRole {
		return apperrors.New(apperrors.CodeUnauthorized, "gm role is required")
	}
	return nil
}

// MintGMToken issues a signed gm credential valid for ttl.
func MintGMToken(secret string, ttl time.Duration, now func() time.Time) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("gm secret is required")
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}

	issued := now().UTC()
	claims := gmClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
		Role: gmRole,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
