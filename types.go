package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Confirmed() bool
}

// TokenPair is the result of a successful login or refresh: a short-lived
// access token plus the single valid refresh token for the identity.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// SessionAuthenticator holds methods to deal with the session lifecycle
type SessionAuthenticator interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	CurrentIdentity(ctx context.Context, accessToken string) (*User, error)
	Logout(ctx context.Context, user *User) error
}

// IdentityStore is the durable storage slice the Session Manager needs.
// The Users repository implements it.
type IdentityStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	StoreRefreshToken(ctx context.Context, user *User, token string) error
	ClearRefreshToken(ctx context.Context, user *User) error
}

// IdentityCache is a time-bounded cache mapping email to a previously
// resolved identity. Implementations live outside process memory so entries
// survive across request-handling workers. A miss is (nil, nil).
type IdentityCache interface {
	GetIdentity(ctx context.Context, email string) (*User, error)
	SetIdentity(ctx context.Context, user *User) error
	DeleteIdentity(ctx context.Context, email string) error
}

// EmailSender delivers verification emails. Send failures are logged by
// callers, never escalated.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, toEmail, username, verificationLink string) error
}

// TokenService signs and validates scoped claim sets
type TokenService interface {
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (*JWTClaims, error)
	ValidateScoped(tokenString string, scope TokenScope) (*JWTClaims, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetVerificationTokenTTL() time.Duration
	GetCacheTTL() time.Duration
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
