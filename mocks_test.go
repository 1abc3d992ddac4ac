package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	auth "github.com/contactdeck/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestConfig() *auth.StaticConfig {
	return &auth.StaticConfig{
		SigningKey:      "test-secret-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

// memStore is an in-memory auth.IdentityStore keyed by email.
type memStore struct {
	users    map[string]*auth.User
	getCalls int
	getErr   error
}

func newMemStore(users ...*auth.User) *memStore {
	s := &memStore{users: map[string]*auth.User{}}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	user, ok := s.users[email]
	if !ok {
		return nil, goerrors.New("record not found", goerrors.CategoryNotFound)
	}
	return user, nil
}

func (s *memStore) StoreRefreshToken(ctx context.Context, user *auth.User, token string) error {
	user.RefreshToken = token
	s.users[user.Email] = user
	return nil
}

func (s *memStore) ClearRefreshToken(ctx context.Context, user *auth.User) error {
	user.RefreshToken = ""
	return nil
}

// memCache is an in-memory auth.IdentityCache.
type memCache struct {
	entries  map[string]*auth.User
	getCalls int
	setCalls int
	deleted  []string
	getErr   error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*auth.User{}}
}

func (c *memCache) GetIdentity(ctx context.Context, email string) (*auth.User, error) {
	c.getCalls++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[email], nil
}

func (c *memCache) SetIdentity(ctx context.Context, user *auth.User) error {
	c.setCalls++
	c.entries[user.Email] = user
	return nil
}

func (c *memCache) DeleteIdentity(ctx context.Context, email string) error {
	c.deleted = append(c.deleted, email)
	delete(c.entries, email)
	return nil
}

// captureSender records verification emails instead of sending them.
type captureSender struct {
	to    []string
	links []string
	err   error
}

func (s *captureSender) SendVerificationEmail(ctx context.Context, toEmail, username, verificationLink string) error {
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, toEmail)
	s.links = append(s.links, verificationLink)
	return nil
}

// fakeRedis implements auth.RedisClient over a map.
type fakeRedis struct {
	store map[string][]byte
	ttls  map[string]time.Duration
	err   error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		store: map[string][]byte{},
		ttls:  map[string]time.Duration{},
	}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	val, ok := f.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(val), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	payload, ok := value.([]byte)
	if !ok {
		payload = []byte(value.(string))
	}
	f.store[key] = payload
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var removed int64
	for _, key := range keys {
		if _, ok := f.store[key]; ok {
			removed++
		}
		delete(f.store, key)
	}
	return redis.NewIntResult(removed, nil)
}

const sqliteCreateUsers = `CREATE TABLE users (
	id TEXT NOT NULL PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	refresh_token TEXT,
	avatar TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP,
	deleted_at TIMESTAMP
);`

// setupRepoManager opens an in-memory SQLite database with the users table
// and returns a repository manager over it.
func setupRepoManager(t *testing.T) auth.RepositoryManager {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return auth.NewRepositoryManager(bunDB)
}

// registerUser inserts a user with a bcrypt hash of password.
func registerUser(t *testing.T, repo auth.RepositoryManager, email, password string, verified bool) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &auth.User{
		Username:      "tester",
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: verified,
	})
	require.NoError(t, err)

	return user
}
