// Package auth provides authentication for Driftline.
//
// It implements:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - HMAC-SHA256 signed JWT access tokens (15-minute TTL)
//   - Opaque random refresh tokens persisted by hash (7-day TTL)
//   - SQLite-backed user and refresh-token repositories
//
// Access tokens are stateless: verification checks only the signature
// and expiry, never the database. There is no revocation list, so a
// leaked access token remains valid until natural expiry. Refresh
// tokens are not rotated on use — the same token can mint access
// tokens repeatedly until its own expiry or an explicit logout. Both
// are deliberate simplifications of this API's session model.
package auth
