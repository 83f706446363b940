package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTokenKeyPrefix = "opsboard:rt:"

// Single round trip compare-and-delete. Returning the blob only after a
// hash match makes concurrent rotations of one token id race-free: the
// first caller deletes the key, every later caller sees nil.
const consumeTokenScript = `
local v = redis.call("GET", KEYS[1])
if not v then
  return false
end
local sep = string.find(v, "|", 1, true)
if not sep or string.sub(v, 1, sep - 1) ~= ARGV[1] then
  return ""
end
redis.call("DEL", KEYS[1])
return v
`

const revokeTokenScript = `
local v = redis.call("GET", KEYS[1])
if not v then
  return 0
end
local sep = string.find(v, "|", 1, true)
if not sep or string.sub(v, 1, sep - 1) ~= ARGV[1] then
  return 0
end
return redis.call("DEL", KEYS[1])
`

var (
	consumeTokenLua = redis.NewScript(consumeTokenScript)
	revokeTokenLua  = redis.NewScript(revokeTokenScript)
)

// RedisRegistry stores refresh tokens in Redis so multiple API replicas
// share one rotation state. Atomicity comes from the Lua scripts above;
// Redis key expiry acts as a second line of cleanup behind lookup-time
// expiry checks.
type RedisRegistry struct {
	client redis.UniversalClient
}

// NewRedisRegistry wraps an existing Redis client.
func NewRedisRegistry(client redis.UniversalClient) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Issue(ctx context.Context, userID string, expiresAt time.Time) (string, RefreshTokenRecord, error) {
	token, rec, err := newRefreshToken(userID, expiresAt)
	if err != nil {
		return "", RefreshTokenRecord{}, err
	}
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, redisTokenKeyPrefix+rec.ID, encodeTokenRecord(rec), ttl).Err(); err != nil {
		return "", RefreshTokenRecord{}, err
	}
	return token, rec, nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, token string) (RefreshTokenRecord, error) {
	id, secret, ok := splitRefreshToken(token)
	if !ok {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	blob, err := r.client.Get(ctx, redisTokenKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	if err != nil {
		return RefreshTokenRecord{}, err
	}
	rec, err := decodeTokenRecord(id, blob)
	if err != nil {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	if !secureCompareHash(rec.TokenHash, hashRefreshSecret(secret)) {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	return rec, nil
}

func (r *RedisRegistry) Consume(ctx context.Context, token string) (RefreshTokenRecord, error) {
	id, secret, ok := splitRefreshToken(token)
	if !ok {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	res, err := consumeTokenLua.Run(ctx, r.client, []string{redisTokenKeyPrefix + id}, hashRefreshSecret(secret)).Result()
	if errors.Is(err, redis.Nil) {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	if err != nil {
		return RefreshTokenRecord{}, err
	}
	blob, _ := res.(string)
	if blob == "" {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	rec, err := decodeTokenRecord(id, blob)
	if err != nil {
		return RefreshTokenRecord{}, ErrInvalidToken
	}
	return rec, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, token string) error {
	id, secret, ok := splitRefreshToken(token)
	if !ok {
		return nil
	}
	err := revokeTokenLua.Run(ctx, r.client, []string{redisTokenKeyPrefix + id}, hashRefreshSecret(secret)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func encodeTokenRecord(rec RefreshTokenRecord) string {
	return fmt.Sprintf("%s|%s|%d|%d", rec.TokenHash, rec.UserID, rec.ExpiresAt.Unix(), rec.CreatedAt.Unix())
}

func decodeTokenRecord(id, blob string) (RefreshTokenRecord, error) {
	parts := strings.SplitN(blob, "|", 4)
	if len(parts) != 4 {
		return RefreshTokenRecord{}, errors.New("auth: corrupt token record")
	}
	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return RefreshTokenRecord{}, err
	}
	created, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return RefreshTokenRecord{}, err
	}
	return RefreshTokenRecord{
		ID:        id,
		UserID:    parts[1],
		TokenHash: parts[0],
		ExpiresAt: time.Unix(expires, 0).UTC(),
		CreatedAt: time.Unix(created, 0).UTC(),
	}, nil
}
