package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Machine readable text codes carried by the structured errors below. They
// let API clients branch on failure kind without string matching messages.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeWrongTokenScope    = "WRONG_TOKEN_SCOPE"
	TextCodeTokenReuseDetected = "TOKEN_REUSE_DETECTED"
	TextCodeVerificationFailed = "VERIFICATION_FAILED"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound)

// ErrMismatchedHashAndPassword is returned when credentials do not verify
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrEmailNotConfirmed blocks login until the verification flow completes
var ErrEmailNotConfirmed = goerrors.New("email not confirmed", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotConfirmed)

// ErrTokenExpired is returned when a token is presented past its expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers signature and format verification failures
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrWrongTokenScope is returned when a token is presented outside the scope
// it was minted for, e.g. an access token on the refresh endpoint.
var ErrWrongTokenScope = goerrors.New("invalid scope for token", goerrors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenScope)

// ErrTokenReuseDetected signals a stale refresh token was replayed. By the
// time callers see it the stored refresh token has been revoked.
var ErrTokenReuseDetected = goerrors.New("refresh token reuse detected", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenReuseDetected)

// ErrVerificationFailed covers every failure of the email confirmation flow
var ErrVerificationFailed = goerrors.New("invalid token for email verification", goerrors.CategoryAuth).
	WithTextCode(TextCodeVerificationFailed)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsAuthError reports whether err is a per-request authentication failure as
// opposed to an infrastructure error (store or cache unreachable).
func IsAuthError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	switch richErr.Category {
	case goerrors.CategoryAuth, goerrors.CategoryNotFound:
		return true
	}
	return false
}
