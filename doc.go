// Package auth implements the account and session lifecycle for a contact
// management backend: credential hashing, scoped JWT issuance, refresh token
// rotation, cached identity resolution, and email verification.
//
// Session lifecycle:
//   - SessionManager is the entry point. Login verifies bcrypt credentials
//     against the Users store and issues an access/refresh pair. Refresh
//     rotates the stored refresh token and revokes the session when a stale
//     token is replayed. CurrentIdentity resolves access tokens through the
//     identity cache before touching the store.
//   - Tokens are HS256 JWTs whose scope claim separates access tokens from
//     refresh tokens. Verification tokens for email confirmation carry no
//     scope and are only accepted by VerificationFlow.
//
// Identity cache:
//   - IdentityCache is backed by Redis with a short TTL. Cached entries are
//     versioned JSON snapshots that never include password hashes or refresh
//     tokens, so a cache leak cannot disclose credentials.
//
// Email verification:
//   - VerificationFlow issues long-lived confirmation tokens, confirms them
//     idempotently, and re-sends verification emails without disclosing
//     whether an address is registered.
//
// HTTP surface:
//   - AuthController mounts the JSON endpoints (signup, login, refresh,
//     confirm, request email) on any RouteRegistrar, and RouteAuthenticator
//     guards downstream routes by resolving bearer tokens to identities.
package auth
