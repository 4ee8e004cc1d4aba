// Package auth resolves the business (tenant) a request acts for.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderBusinessID    = "X-Business-Id"
	claimBusinessID     = "business_id"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoBusiness   = errors.New("no business id")
)

// Claims carries the tenant in business_id next to the registered claims.
type Claims struct {
	BusinessID string `json:"business_id"`
	jwt.RegisteredClaims
}

// TenantResolver verifies HS256 bearer tokens when a secret is configured.
// Without a secret it trusts the X-Business-Id header and falls back to a
// default business for single-tenant deployments.
type TenantResolver struct {
	secret          []byte
	defaultBusiness string
	parser          *jwt.Parser
}

func NewTenantResolver(secret, defaultBusiness string) *TenantResolver {
	return &TenantResolver{
		secret:          []byte(secret),
		defaultBusiness: strings.TrimSpace(defaultBusiness),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

func (r *TenantResolver) TokenMode() bool {
	return len(r.secret) > 0
}

// Resolve takes the raw Authorization and X-Business-Id header values.
func (r *TenantResolver) Resolve(authorization, businessHeader string) (string, error) {
	if !r.TokenMode() {
		if b := strings.TrimSpace(businessHeader); b != "" {
			return b, nil
		}
		if r.defaultBusiness != "" {
			return r.defaultBusiness, nil
		}
		return "", ErrNoBusiness
	}

	raw, ok := bearer(authorization)
	if !ok {
		return "", ErrMissingToken
	}
	claims := &Claims{}
	if _, err := r.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	b := strings.TrimSpace(claims.BusinessID)
	if b == "" {
		return "", fmt.Errorf("%w: %s claim is empty", ErrInvalidToken, claimBusinessID)
	}
	return b, nil
}

// Sign issues a token for businessID. Used by tooling and tests.
func (r *TenantResolver) Sign(businessID, subject string, ttl time.Duration) (string, error) {
	if !r.TokenMode() {
		return "", errors.New("no signing secret configured")
	}
	now := time.Now()
	claims := Claims{
		BusinessID: businessID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

func bearer(header string) (string, bool) {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
