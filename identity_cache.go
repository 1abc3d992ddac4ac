package auth

import (
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// cacheEntryVersion tags serialized cache entries so a future shape change
// invalidates old entries instead of mis-reading them.
const cacheEntryVersion = 1

// RedisClient captures the go-redis commands the identity cache issues.
// *redis.Client and *redis.ClusterClient both satisfy it.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// cachedIdentity is the cacheable projection of a User. Password hash and
// refresh token deliberately never enter the cache.
type cachedIdentity struct {
	Version       int        `json:"v"`
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	EmailVerified bool       `json:"is_email_verified"`
	Avatar        string     `json:"avatar,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// RedisIdentityCache is a Redis backed IdentityCache. Entries expire after a
// fixed TTL, bounding staleness relative to the identity store.
type RedisIdentityCache struct {
	client RedisClient
	ttl    time.Duration
	prefix string
	logger Logger
}

var _ IdentityCache = (*RedisIdentityCache)(nil)

type RedisIdentityCacheOption func(*RedisIdentityCache)

// WithCachePrefix sets the key prefix. Default: "user:".
func WithCachePrefix(prefix string) RedisIdentityCacheOption {
	return func(c *RedisIdentityCache) {
		c.prefix = prefix
	}
}

// WithCacheLogger overrides the cache logger.
func WithCacheLogger(logger Logger) RedisIdentityCacheOption {
	return func(c *RedisIdentityCache) {
		c.logger = logger
	}
}

// NewRedisIdentityCache creates an identity cache over the given client. A
// non-positive ttl falls back to DefaultCacheTTL.
func NewRedisIdentityCache(client RedisClient, ttl time.Duration, opts ...RedisIdentityCacheOption) *RedisIdentityCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &RedisIdentityCache{
		client: client,
		ttl:    ttl,
		prefix: "user:",
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// GetIdentity returns the cached identity for email, or (nil, nil) on a
// miss. Cache infrastructure failures are CategoryExternal, never an auth
// failure.
func (c *RedisIdentityCache) GetIdentity(ctx context.Context, email string) (*User, error) {
	payload, err := c.client.Get(ctx, c.key(email)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "identity cache read failed")
	}

	entry := &cachedIdentity{}
	if err := json.Unmarshal(payload, entry); err != nil {
		// a corrupt entry is a miss; the store remains authoritative
		c.logger.Error("identity cache entry unreadable", "email", email, "error", err)
		return nil, nil
	}

	if entry.Version != cacheEntryVersion {
		c.logger.Debug("identity cache entry version mismatch", "have", entry.Version)
		return nil, nil
	}

	return entry.toUser(), nil
}

// SetIdentity stores the cacheable projection of user under its email with
// the configured TTL.
func (c *RedisIdentityCache) SetIdentity(ctx context.Context, user *User) error {
	if user == nil {
		return goerrors.New("cannot cache nil user", goerrors.CategoryBadInput)
	}

	payload, err := json.Marshal(newCachedIdentity(user))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize identity cache entry")
	}

	if err := c.client.Set(ctx, c.key(user.Email), payload, c.ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "identity cache write failed")
	}

	return nil
}

// DeleteIdentity evicts the entry for email, if any.
func (c *RedisIdentityCache) DeleteIdentity(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "identity cache delete failed")
	}
	return nil
}

func (c *RedisIdentityCache) key(email string) string {
	return c.prefix + email
}

func newCachedIdentity(user *User) *cachedIdentity {
	return &cachedIdentity{
		Version:       cacheEntryVersion,
		ID:            user.ID.String(),
		Email:         user.Email,
		Username:      user.Username,
		EmailVerified: user.EmailVerified,
		Avatar:        user.Avatar,
		CreatedAt:     user.CreatedAt,
	}
}

func (e *cachedIdentity) toUser() *User {
	user := &User{
		Username:      e.Username,
		Email:         e.Email,
		EmailVerified: e.EmailVerified,
		Avatar:        e.Avatar,
		CreatedAt:     e.CreatedAt,
	}

	if id, err := uuid.Parse(e.ID); err == nil {
		user.ID = id
	}

	return user
}
