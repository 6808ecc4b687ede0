package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Tuned per OWASP guidance; verification cost
// is paid on every login and on every seeded demo account at boot.
const (
	argonTime    = 3         // iterations
	argonMemory  = 64 * 1024 // KiB, so 64 MiB per hash
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashPassword derives an Argon2id hash for storage in users.password_hash.
// Output is a self-describing PHC string, e.g.
// $argon2id$v=19$m=65536,t=3,p=1$<b64 salt>$<b64 hash>, so parameters can
// be raised later without invalidating existing rows.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword re-derives the hash with the parameters recorded in the
// stored PHC string and compares in constant time.
//
// A malformed stored hash returns an error, not false. Accounts created
// through POST /api/users without a password store an empty hash, so this
// errors for them and login fails closed.
func VerifyPassword(password, stored string) (bool, error) {
	params, salt, want, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(want))) //nolint:gosec // G115: hash length always fits uint32

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

// parsePHC splits a $argon2id$v=..$m=..,t=..,p=..$salt$hash string into
// its cost parameters, salt, and derived key.
func parsePHC(stored string) (params argonParams, salt, key []byte, err error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 { //nolint:mnd // PHC strings always split into 6 parts
		return params, nil, nil, fmt.Errorf("malformed password hash")
	}

	if parts[1] != "argon2id" {
		return params, nil, nil, fmt.Errorf("unsupported hash algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return params, nil, nil, fmt.Errorf("parsing hash version: %w", err)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return params, nil, nil, fmt.Errorf("parsing hash parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("decoding salt: %w", err)
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("decoding hash: %w", err)
	}

	return params, salt, key, nil
}
