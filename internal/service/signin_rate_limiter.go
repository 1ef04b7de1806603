package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limited")

// SignInRateLimiter limita los intentos de ingreso por clave (email normalizado).
type SignInRateLimiter interface {
	Allow(key string) bool
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type memorySignInRateLimiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	window  time.Duration
	entries map[string]*limiterEntry
	now     func() time.Time
}

// NewMemorySignInRateLimiter crea un limitador token-bucket en memoria:
// max intentos de ráfaga, recargados a razón de max por window.
func NewMemorySignInRateLimiter(window time.Duration, max int) SignInRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memorySignInRateLimiter{
		every:   rate.Every(window / time.Duration(max)),
		burst:   max,
		window:  window,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (l *memorySignInRateLimiter) Allow(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = now
	return entry.limiter.AllowN(now, 1)
}

// evict descarta claves sin actividad durante más de una ventana.
func (l *memorySignInRateLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	for key, entry := range l.entries {
		if entry.lastAccess.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

const redisSignInAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisSignInRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewRedisSignInRateLimiter comparte el contador entre réplicas usando una ventana fija en Redis.
func NewRedisSignInRateLimiter(client *redis.Client, window time.Duration, max int) SignInRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisSignInRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "signin:rl:",
	}
}

func (l *redisSignInRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisSignInAllowScript, []string{l.prefix + normalizedKey}, seconds).Int()
	if err != nil {
		// Fail-open: Redis caído no debe bloquear el ingreso.
		return true
	}
	return count <= l.max
}
