package survey

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/survey-backend/internal/platform/logger"
)

// Locker serialises critical sections that span a read and a write to a backend
// without native conditional writes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type localLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker returns an in-process Locker. It honours ctx while waiting.
func NewLocalLocker() Locker {
	return &localLocker{locks: map[string]chan struct{}{}}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLockerConfig struct {
	Prefix       string
	TTL          time.Duration
	PollInterval time.Duration
}

type redisLocker struct {
	rdb redis.UniversalClient
	cfg RedisLockerConfig
	log *logger.Logger
}

// NewRedisLocker returns a Locker shared by every process using the same Redis.
// The lock expires after TTL so a crashed holder cannot block others forever.
func NewRedisLocker(rdb redis.UniversalClient, cfg RedisLockerConfig, baseLog *logger.Logger) (Locker, error) {
	if rdb == nil {
		return nil, errors.New("redis client required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "survey:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	return &redisLocker{rdb: rdb, cfg: cfg, log: baseLog.With("locker", "RedisLocker")}, nil
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	full := l.cfg.Prefix + key

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", full, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.rdb, []string{full}, token).Err(); err != nil {
				l.log.Warn("Failed to release lock", "key", full, "error", err)
			}
		})
	}, nil
}

func randomToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
