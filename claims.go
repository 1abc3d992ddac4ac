package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenScope restricts a token's acceptable use. Scope interpretation is the
// caller's responsibility; the codec only records and reports it.
type TokenScope string

const (
	// ScopeAccess marks short-lived tokens proving identity per request
	ScopeAccess TokenScope = "access_token"
	// ScopeRefresh marks the longer-lived token exchanged for a new pair
	ScopeRefresh TokenScope = "refresh_token"
	// ScopeNone is carried by email verification tokens, which are
	// distinguished by issuance context rather than a scope claim.
	ScopeNone TokenScope = ""
)

// JWTClaims is the single claim shape every token in the system uses:
// registered claims plus an explicit scope field.
type JWTClaims struct {
	jwt.RegisteredClaims
	Scope TokenScope `json:"scope,omitempty"`
}

// NewAccessClaims mints the claim set for a short-lived access token.
func NewAccessClaims(email string, ttl time.Duration) *JWTClaims {
	return newClaims(email, ttl, ScopeAccess)
}

// NewRefreshClaims mints the claim set for a refresh token.
func NewRefreshClaims(email string, ttl time.Duration) *JWTClaims {
	return newClaims(email, ttl, ScopeRefresh)
}

// NewVerificationClaims mints the claim set for an email verification token.
func NewVerificationClaims(email string, ttl time.Duration) *JWTClaims {
	return newClaims(email, ttl, ScopeNone)
}

func newClaims(email string, ttl time.Duration, scope TokenScope) *JWTClaims {
	now := time.Now()
	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens unique even when two are minted for the
			// same subject within the same second, which rotation relies on
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: scope,
	}
}

// Email returns the subject claim, which carries the identity's email.
func (c *JWTClaims) Email() string {
	return c.RegisteredClaims.Subject
}

// HasScope reports whether the claims carry the given scope.
func (c *JWTClaims) HasScope(scope TokenScope) bool {
	return c.Scope == scope
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
