package kv

import (
	"context"
	"fmt"
	"numbers_backend/internal/repository"
	"time"

	"github.com/redis/go-redis/v9"
)

// Счетчик окна и его срок жизни выставляются атомарно.
// Ключ без TTL получает срок заново
var rateLimitScript = redis.NewScript(`
	local count = redis.call("INCR", KEYS[1])
	if count == 1 or redis.call("PTTL", KEYS[1]) < 0 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return count
`)

type rateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) repository.RateLimiter {
	return &rateLimiter{client: client}
}

// Allow - фиксированное окно на аккаунт и действие
func (r *rateLimiter) Allow(ctx context.Context, accountID int64, action string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	key := fmt.Sprintf(KeyRateLimit, accountID, action)

	count, err := rateLimitScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return count <= int64(limit), nil
}
