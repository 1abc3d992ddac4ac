package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// IdentityContextKey is the router locals key under which protected routes
// store the resolved Identity.
const IdentityContextKey = "auth_identity"

// ErrorDetail is the JSON body for every auth error response. The detail
// strings are part of the public contract and clients match on them.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// MessageBody is the JSON body for successful confirmation and re-request
// responses, keyed "message" where errors key "detail".
type MessageBody struct {
	Message string `json:"message"`
}

// detail strings returned by the auth endpoints
const (
	DetailInvalidEmail      = "Invalid email"
	DetailEmailNotConfirmed = "Email not confirmed"
	DetailInvalidPassword   = "Invalid password"
	DetailInvalidToken      = "Could not validate credentials"
	DetailInvalidRefresh    = "Invalid refresh token"
	DetailVerificationError = "Verification error"
	DetailAccountExists     = "Account already exists"
	DetailEmailConfirmed    = "Your email is already confirmed"
	DetailCheckYourEmail    = "Check your email for confirmation."
	DetailEmailConfirmedNow = "Email confirmed"
	DetailUserCreated       = "User successfully created. Check your email for confirmation."
	DetailInternalError     = "Internal server error"
	DetailMalformedPayload  = "Malformed request payload"
)

// MapAuthError translates a domain error into an HTTP status code and the
// public detail string for it. Infra failures collapse into a 500 with a
// generic detail so internals never leak through the API.
func MapAuthError(err error) (int, string) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return router.StatusInternalServerError, DetailInternalError
	}

	switch richErr.TextCode {
	case TextCodeIdentityNotFound:
		return router.StatusUnauthorized, DetailInvalidEmail
	case TextCodeEmailNotConfirmed:
		return router.StatusUnauthorized, DetailEmailNotConfirmed
	case TextCodeInvalidCreds:
		return router.StatusUnauthorized, DetailInvalidPassword
	case TextCodeTokenReuseDetected:
		return router.StatusUnauthorized, DetailInvalidRefresh
	case TextCodeVerificationFailed:
		return router.StatusBadRequest, DetailVerificationError
	case TextCodeTokenExpired, TextCodeTokenMalformed, TextCodeWrongTokenScope:
		return router.StatusUnauthorized, DetailInvalidToken
	}

	switch richErr.Category {
	case goerrors.CategoryAuth, goerrors.CategoryNotFound:
		return router.StatusUnauthorized, DetailInvalidToken
	case goerrors.CategoryConflict:
		return router.StatusConflict, DetailAccountExists
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest, richErr.Message
	default:
		return router.StatusInternalServerError, DetailInternalError
	}
}

// RenderAuthError writes the mapped error response for err.
func RenderAuthError(ctx router.Context, err error) error {
	status, detail := MapAuthError(err)
	return ctx.JSON(status, ErrorDetail{Detail: detail})
}

// BearerToken extracts the token from an Authorization header value using
// the Bearer scheme. Scheme comparison is case insensitive.
func BearerToken(ctx router.Context) (string, error) {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return "", ErrTokenMalformed
	}

	// the scheme must be followed by a space, "Bearerxyz" is not a credential
	const scheme = "Bearer "
	if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		if token := strings.TrimSpace(header[len(scheme):]); token != "" {
			return token, nil
		}
	}

	return "", ErrTokenMalformed
}

// RouteAuthenticator guards routes with access token validation backed by a
// SessionAuthenticator.
type RouteAuthenticator struct {
	session Session
	Logger  Logger
	// ErrorHandler renders validation failures, defaults to RenderAuthError
	ErrorHandler func(ctx router.Context, err error) error
}

// Session is the subset of SessionAuthenticator the route guard needs.
type Session interface {
	CurrentIdentity(ctx context.Context, accessToken string) (*User, error)
}

func NewRouteAuthenticator(session Session) *RouteAuthenticator {
	a := &RouteAuthenticator{
		session: session,
		Logger:  defLogger{},
	}
	a.ErrorHandler = a.defaultErrHandler
	return a
}

// ProtectedRoute resolves the bearer token to an Identity and stores it in
// the request locals under IdentityContextKey.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token, err := BearerToken(ctx)
			if err != nil {
				return a.ErrorHandler(ctx, err)
			}

			user, err := a.session.CurrentIdentity(ctx.Context(), token)
			if err != nil {
				return a.ErrorHandler(ctx, err)
			}

			ctx.Locals(IdentityContextKey, NewIdentityFromUser(user))
			return next(ctx)
		}
	}
}

// IdentityFromContext retrieves the Identity stored by ProtectedRoute.
func IdentityFromContext(ctx router.Context) (Identity, bool) {
	identity, ok := ctx.Locals(IdentityContextKey).(Identity)
	return identity, ok
}

func (a *RouteAuthenticator) defaultErrHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		a.Logger.Info(
			"request rejected",
			"error", richErr.Message,
			"text_code", richErr.TextCode,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
	} else {
		a.Logger.Info("request rejected", "error", err)
	}

	return RenderAuthError(ctx, err)
}
