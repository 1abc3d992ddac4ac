package auth

import "time"

// Defaults mirror the production windows: access tokens live 15 minutes,
// refresh and verification tokens 7 days, cached identities 900 seconds.
const (
	DefaultAccessTokenTTL       = 15 * time.Minute
	DefaultRefreshTokenTTL      = 7 * 24 * time.Hour
	DefaultVerificationTokenTTL = 7 * 24 * time.Hour
	DefaultCacheTTL             = 900 * time.Second
)

// StaticConfig is a Config backed by plain fields. Zero durations fall back
// to the package defaults.
type StaticConfig struct {
	SigningKey           string
	Issuer               string
	Audience             []string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	CacheTTL             time.Duration
}

var _ Config = (*StaticConfig)(nil)

// NewStaticConfig returns a StaticConfig carrying the default windows.
func NewStaticConfig(signingKey string) *StaticConfig {
	return &StaticConfig{SigningKey: signingKey}
}

func (c *StaticConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *StaticConfig) GetIssuer() string {
	return c.Issuer
}

func (c *StaticConfig) GetAudience() []string {
	return c.Audience
}

func (c *StaticConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return DefaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

func (c *StaticConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return DefaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

func (c *StaticConfig) GetVerificationTokenTTL() time.Duration {
	if c.VerificationTokenTTL <= 0 {
		return DefaultVerificationTokenTTL
	}
	return c.VerificationTokenTTL
}

func (c *StaticConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL <= 0 {
		return DefaultCacheTTL
	}
	return c.CacheTTL
}
