package auth_test

import (
	"context"
	"testing"

	auth "github.com/contactdeck/go-auth"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubAuthenticator implements auth.SessionAuthenticator.
type stubAuthenticator struct {
	pair      *auth.TokenPair
	user      *auth.User
	err       error
	lastToken string
}

func (s *stubAuthenticator) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthenticator) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	s.lastToken = refreshToken
	return s.pair, s.err
}

func (s *stubAuthenticator) CurrentIdentity(ctx context.Context, accessToken string) (*auth.User, error) {
	s.lastToken = accessToken
	return s.user, s.err
}

func (s *stubAuthenticator) Logout(ctx context.Context, user *auth.User) error {
	return s.err
}

func TestSignupPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload auth.SignupPayload
		wantErr bool
	}{
		{
			name:    "valid payload",
			payload: auth.SignupPayload{Username: "tester", Email: "user@example.com", Password: "correct-horse"},
			wantErr: false,
		},
		{
			name:    "username optional",
			payload: auth.SignupPayload{Email: "user@example.com", Password: "correct-horse"},
			wantErr: false,
		},
		{
			name:    "missing email",
			payload: auth.SignupPayload{Password: "correct-horse"},
			wantErr: true,
		},
		{
			name:    "invalid email",
			payload: auth.SignupPayload{Email: "not-an-email", Password: "correct-horse"},
			wantErr: true,
		},
		{
			name:    "short password",
			payload: auth.SignupPayload{Email: "user@example.com", Password: "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginPayloadValidate(t *testing.T) {
	assert.NoError(t, auth.LoginPayload{Username: "user@example.com", Password: "pw"}.Validate())
	assert.Error(t, auth.LoginPayload{Password: "pw"}.Validate())
	assert.Error(t, auth.LoginPayload{Username: "user@example.com"}.Validate())
}

func TestRequestEmailPayloadValidate(t *testing.T) {
	assert.NoError(t, auth.RequestEmailPayload{Email: "user@example.com"}.Validate())
	assert.Error(t, auth.RequestEmailPayload{}.Validate())
	assert.Error(t, auth.RequestEmailPayload{Email: "nope"}.Validate())
}

func TestControllerRefreshToken(t *testing.T) {
	session := &stubAuthenticator{
		pair: &auth.TokenPair{AccessToken: "A2", RefreshToken: "R2", TokenType: "bearer"},
	}
	controller := auth.NewAuthController(session, nil, nil, auth.ControllerConfig{})

	ctx := router.NewMockContext()
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer R1")
	ctx.On("Context").Return(context.Background())

	var status int
	var body any
	ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		status = args.Int(0)
		body = args.Get(1)
	}).Return(nil)

	require.NoError(t, controller.RefreshToken(ctx))

	assert.Equal(t, "R1", session.lastToken)
	assert.Equal(t, router.StatusOK, status)
	assert.Equal(t, session.pair, body)
}

func TestControllerRefreshTokenRejections(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		sessionErr error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "missing bearer token",
			header:     "",
			wantStatus: router.StatusUnauthorized,
			wantDetail: auth.DetailInvalidToken,
		},
		{
			name:       "reused refresh token",
			header:     "Bearer stale-token",
			sessionErr: auth.ErrTokenReuseDetected,
			wantStatus: router.StatusUnauthorized,
			wantDetail: auth.DetailInvalidRefresh,
		},
		{
			name:       "access token presented",
			header:     "Bearer access-token",
			sessionErr: auth.ErrWrongTokenScope,
			wantStatus: router.StatusUnauthorized,
			wantDetail: auth.DetailInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &stubAuthenticator{err: tt.sessionErr}
			controller := auth.NewAuthController(session, nil, nil, auth.ControllerConfig{})

			ctx := router.NewMockContext()
			ctx.On("GetString", router.HeaderAuthorization, "").Return(tt.header)
			ctx.On("Context").Return(context.Background()).Maybe()

			var status int
			var body any
			ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				status = args.Int(0)
				body = args.Get(1)
			}).Return(nil)

			require.NoError(t, controller.RefreshToken(ctx))
			assert.Equal(t, tt.wantStatus, status)

			detail, ok := body.(auth.ErrorDetail)
			require.True(t, ok)
			assert.Equal(t, tt.wantDetail, detail.Detail)
		})
	}
}

func TestControllerConfirmEmail(t *testing.T) {
	repo := setupRepoManager(t)
	flow := newVerificationFlow(t, repo, nil)
	controller := auth.NewAuthController(nil, flow, nil, auth.ControllerConfig{})

	registerUser(t, repo, "user@example.com", "correct-horse", false)

	token, err := flow.IssueToken("user@example.com")
	require.NoError(t, err)

	confirm := func(token string) (int, any) {
		ctx := router.NewMockContext()
		ctx.ParamsM["token"] = token
		ctx.On("Context").Return(context.Background())

		var status int
		var body any
		ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			status = args.Int(0)
			body = args.Get(1)
		}).Return(nil)

		require.NoError(t, controller.ConfirmEmail(ctx))
		return status, body
	}

	// success responses key the text "message", errors key "detail"
	status, body := confirm(token)
	assert.Equal(t, router.StatusOK, status)
	assert.Equal(t, auth.MessageBody{Message: auth.DetailEmailConfirmedNow}, body)

	// second confirmation with the same link is acknowledged, not an error
	status, body = confirm(token)
	assert.Equal(t, router.StatusOK, status)
	assert.Equal(t, auth.MessageBody{Message: auth.DetailEmailConfirmed}, body)

	// a bad token is a 400 with an opaque detail
	status, body = confirm("not.a.token")
	assert.Equal(t, router.StatusBadRequest, status)
	assert.Equal(t, auth.ErrorDetail{Detail: auth.DetailVerificationError}, body)
}
