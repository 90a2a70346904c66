package redislock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired не удалось взять блокировку за отведенное время
	ErrNotAcquired = errors.New("redislock: lock not acquired")
)

const retryInterval = 25 * time.Millisecond

// Удаляем ключ только если он всё ещё принадлежит нашему токену
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseFunc снимает взятые блокировки
type ReleaseFunc func(ctx context.Context) error

// Locker набор распределенных блокировок в Redis (SET NX PX + Lua на снятие)
type Locker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// New создает Locker. ttl ограничивает время жизни ключа, wait время ожидания захвата.
func New(client redis.Cmdable, prefix string, ttl, wait time.Duration) *Locker {
	if prefix == "" {
		prefix = "lock"
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &Locker{client: client, prefix: prefix, ttl: ttl, wait: wait}
}

// Acquire захватывает все ключи в отсортированном порядке.
// При неудаче уже взятые ключи освобождаются.
func (l *Locker) Acquire(ctx context.Context, keys []string) (ReleaseFunc, error) {
	sorted := uniqueSorted(keys)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	held := make([]string, 0, len(sorted))
	release := func(ctx context.Context) error {
		var errs []error
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(ctx, l.client, []string{held[i]}, token).Err(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, key := range sorted {
		fullKey := l.prefix + ":" + key
		if err := l.acquireOne(ctx, fullKey, token, deadline); err != nil {
			_ = release(context.WithoutCancel(ctx))
			return nil, err
		}
		held = append(held, fullKey)
	}

	return release, nil
}

func (l *Locker) acquireOne(ctx context.Context, key, token string, deadline time.Time) error {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("redislock: setnx %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// NoopLocker используется, когда Redis не настроен
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, []string) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
