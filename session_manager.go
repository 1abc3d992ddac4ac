package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// SessionManager orchestrates login, refresh rotation, identity resolution,
// and logout. It holds no mutable state of its own; consistency for the "one
// valid refresh token per identity" invariant relies on the store's atomic
// single-field writes.
type SessionManager struct {
	store        IdentityStore
	cache        IdentityCache
	tokenService TokenService
	config       Config
	logger       Logger
}

var _ SessionAuthenticator = (*SessionManager)(nil)

// NewSessionManager returns a SessionManager with injected dependencies.
// Pass a nil cache to resolve identities straight from the store.
func NewSessionManager(store IdentityStore, cache IdentityCache, cfg Config) *SessionManager {
	return &SessionManager{
		store:        store,
		cache:        cache,
		config:       cfg,
		tokenService: NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), cfg.GetAudience(), defLogger{}),
		logger:       defLogger{},
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	s.logger = logger
	s.tokenService = NewTokenService([]byte(s.config.GetSigningKey()), s.config.GetIssuer(), s.config.GetAudience(), logger)
	return s
}

// WithTokenService sets a custom token codec.
func (s *SessionManager) WithTokenService(ts TokenService) *SessionManager {
	s.tokenService = ts
	return s
}

// TokenService returns the token codec used by this SessionManager
func (s *SessionManager) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and mints a fresh access/refresh pair. The new
// refresh token overwrites any stored one, invalidating prior sessions'
// refresh path.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.logger.Debug("Login unknown email", "email", email)
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if !user.EmailVerified {
		s.logger.Debug("Login blocked, email not confirmed", "email", email)
		return nil, ErrEmailNotConfirmed
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("Login password mismatch", "email", email)
		return nil, ErrMismatchedHashAndPassword
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates a valid refresh token for a new pair. A presented token
// that no longer matches the stored one is evidence of reuse or theft: the
// stored token is revoked so the whole session lineage dies, and the caller
// must log in again.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenService.ValidateScoped(refreshToken, ScopeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetByEmail(ctx, claims.Email())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during refresh")
	}

	if user.RefreshToken != refreshToken {
		s.logger.Error("Refresh token reuse detected, revoking session", "email", user.Email)
		if err := s.store.ClearRefreshToken(ctx, user); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke refresh token")
		}
		return nil, ErrTokenReuseDetected
	}

	return s.issuePair(ctx, user)
}

// CurrentIdentity resolves the identity behind an access token. Resolution
// happens on every authenticated request, so a cache hit skips the store
// round trip at the cost of a bounded staleness window.
func (s *SessionManager) CurrentIdentity(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.tokenService.ValidateScoped(accessToken, ScopeAccess)
	if err != nil {
		return nil, err
	}

	email := claims.Email()
	if email == "" {
		return nil, ErrTokenMalformed
	}

	if s.cache != nil {
		cached, err := s.cache.GetIdentity(ctx, email)
		if err != nil {
			// treat a broken cache as a miss, the store is authoritative
			s.logger.Error("identity cache lookup failed", "email", email, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// valid token for a deleted account
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve identity")
	}

	if s.cache != nil {
		if err := s.cache.SetIdentity(ctx, user); err != nil {
			// cache population is an optimization; the resolved identity wins
			s.logger.Error("failed to populate identity cache", "email", email, "error", err)
		}
	}

	return user, nil
}

// Logout clears the stored refresh token, forcing any outstanding refresh
// token to fail on next use. Outstanding access tokens expire on their own.
func (s *SessionManager) Logout(ctx context.Context, user *User) error {
	if user == nil {
		return goerrors.New("cannot logout nil user", goerrors.CategoryBadInput)
	}

	if err := s.store.ClearRefreshToken(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear refresh token")
	}

	if s.cache != nil {
		if err := s.cache.DeleteIdentity(ctx, user.Email); err != nil {
			s.logger.Error("failed to evict identity cache", "email", user.Email, "error", err)
		}
	}

	return nil
}

func (s *SessionManager) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.tokenService.SignClaims(NewAccessClaims(user.Email, s.config.GetAccessTokenTTL()))
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokenService.SignClaims(NewRefreshClaims(user.Email, s.config.GetRefreshTokenTTL()))
	if err != nil {
		return nil, err
	}

	if err := s.store.StoreRefreshToken(ctx, user, refresh); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
