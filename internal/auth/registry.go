package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"opsboard.dev/internal/ids"
)

// Registry owns the lifecycle of refresh tokens. A token string has the form
// "<id>.<secret>"; the id addresses the record and only a hash of the secret
// is retained. Once a token is consumed or revoked it never validates again.
type Registry interface {
	// Issue creates and stores a fresh single-use token for the user,
	// valid until expiresAt. The caller owns expiry policy; the
	// registry only records and enforces deletion.
	Issue(ctx context.Context, userID string, expiresAt time.Time) (string, RefreshTokenRecord, error)
	// Lookup is a pure read; it never mutates the registry.
	Lookup(ctx context.Context, token string) (RefreshTokenRecord, error)
	// Consume atomically removes the record after verifying the secret.
	// Of any number of concurrent consumers of one token string, exactly
	// one receives the record; the rest get ErrInvalidToken. The record
	// is returned even when past expiry so the caller can fail the
	// rotation while the entry is already gone.
	Consume(ctx context.Context, token string) (RefreshTokenRecord, error)
	// Revoke deletes the record if present. Revoking an absent or
	// malformed token is a no-op, not an error.
	Revoke(ctx context.Context, token string) error
}

func newRefreshToken(userID string, expiresAt time.Time) (string, RefreshTokenRecord, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", RefreshTokenRecord{}, err
	}
	encoded := base64.RawURLEncoding.EncodeToString(secret)
	rec := RefreshTokenRecord{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: hashRefreshSecret(encoded),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	return rec.ID + "." + encoded, rec, nil
}

func splitRefreshToken(raw string) (id, secret string, ok bool) {
	id, secret, found := strings.Cut(strings.TrimSpace(raw), ".")
	if !found || id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}

func hashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func secureCompareHash(expected, actual string) bool {
	if len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

const registryShards = 32

// MemoryRegistry keeps refresh tokens in a sharded in-process map. Shards
// keep rotation of one token from serializing issuance of unrelated ones;
// the per-shard lock gives Consume its compare-and-delete atomicity.
type MemoryRegistry struct {
	shards [registryShards]registryShard
}

type registryShard struct {
	mu      sync.Mutex
	records map[string]RefreshTokenRecord
}

// NewMemoryRegistry returns an empty in-process registry.
func NewMemoryRegistry() *MemoryRegistry {
	r := &MemoryRegistry{}
	for i := range r.shards {
		r.shards[i].records = make(map[string]RefreshTokenRecord)
	}
	return r
}

func (r *MemoryRegistry) shard(id string) *registryShard {
	var h uint32
	for i := 0; i < len(id); i++ {
		h = h*31 + uint32(id[i])
	}
	return &r.shards[h%registryShards]
}

func (r *MemoryRegistry) Issue(ctx context.Context, userID string, expiresAt time.Time) (string, RefreshTokenRecord, error) {
	token, rec, err := newRefreshToken(userID, expiresAt)
	if err != nil {
		return "", RefreshTokenRecord{}, err
	}
	sh := r.shard(rec.ID)
	sh.mu.Lock()
	sh.records[rec.ID] = rec
	sh.mu.Unlock()
	return token, rec, nil
}

func (r *MemoryRegistry) Lookup(ctx context.Context, token string) (RefreshTokenRecord, error) {
	id, secret, ok := splitRefreshToken(token)
	if !ok {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	sh := r.shard(id)
	sh.mu.Lock()
	rec, found := sh.records[id]
	sh.mu.Unlock()
	if !found || !secureCompareHash(rec.TokenHash, hashRefreshSecret(secret)) {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	return rec, nil
}

func (r *MemoryRegistry) Consume(ctx context.Context, token string) (RefreshTokenRecord, error) {
	id, secret, ok := splitRefreshToken(token)
	if !ok {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, found := sh.records[id]
	if !found {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	if !secureCompareHash(rec.TokenHash, hashRefreshSecret(secret)) {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	delete(sh.records, id)
	return rec, nil
}

func (r *MemoryRegistry) Revoke(ctx context.Context, token string) error {
	id, secret, ok := splitRefreshToken(token)
	if !ok {
		return nil
	}
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, found := sh.records[id]
	if !found {
		return nil
	}
	if !secureCompareHash(rec.TokenHash, hashRefreshSecret(secret)) {
		return nil
	}
	delete(sh.records, id)
	return nil
}
