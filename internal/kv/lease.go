package kv

import (
	"context"
	"numbers_backend/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Снимаем аренду, только если она все еще наша
var releaseLeaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Продлеваем аренду, только если она все еще наша
var extendLeaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return 0
`)

type lease struct {
	client *redis.Client
	key    string
	owner  string
}

func NewSchedulerLease(client *redis.Client) repository.Lease {
	return &lease{
		client: client,
		key:    KeySchedulerLease,
		owner:  uuid.NewString(),
	}
}

// Acquire - берет аренду или продлевает уже свою
func (l *lease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	n, err := extendLeaseScript.Run(ctx, l.client, []string{l.key}, l.owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *lease) Release(ctx context.Context) error {
	return releaseLeaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err()
}
