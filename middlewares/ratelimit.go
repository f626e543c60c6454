package middlewares

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CleanupInterval is how often a server prunes idle rate limit buckets.
const CleanupInterval = 10 * time.Minute

// KeyedRateLimiter keeps an independent token bucket per key. Buckets idle
// for longer than a full refill are dropped by Prune.
type KeyedRateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// NewHourlyLimiter allows perHour requests per key, all of which may be spent at once.
func NewHourlyLimiter(perHour int) *KeyedRateLimiter {
	return NewKeyedRateLimiter(rate.Limit(float64(perHour)/time.Hour.Seconds()), perHour)
}

func NewKeyedRateLimiter(limit rate.Limit, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

func (krl *KeyedRateLimiter) Allow(key string) bool {
	now := krl.now()
	return krl.getBucket(key, now).limiter.AllowN(now, 1)
}

func (krl *KeyedRateLimiter) getBucket(key string, now time.Time) *bucket {
	krl.mu.RLock()
	b, exists := krl.buckets[key]
	krl.mu.RUnlock()
	if !exists {
		krl.mu.Lock()
		if b, exists = krl.buckets[key]; !exists {
			b = &bucket{limiter: rate.NewLimiter(krl.limit, krl.burst)}
			krl.buckets[key] = b
		}
		krl.mu.Unlock()
	}

	b.lastSeen.Store(now.UnixNano())
	return b
}

// Len is the number of keys currently tracked.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.buckets)
}

// IdleAfter is how long a bucket takes to refill completely. A bucket unused
// for that long is full again, so forgetting it changes nothing.
func (krl *KeyedRateLimiter) IdleAfter() time.Duration {
	if krl.limit <= 0 || krl.limit == rate.Inf || krl.burst <= 0 {
		return time.Hour
	}
	idle := time.Duration(float64(krl.burst) / float64(krl.limit) * float64(time.Second))
	return max(idle.Round(time.Second), time.Second)
}

// Prune drops every bucket not used within IdleAfter and returns how many went.
func (krl *KeyedRateLimiter) Prune() int {
	cutoff := krl.now().Add(-krl.IdleAfter()).UnixNano()

	krl.mu.Lock()
	defer krl.mu.Unlock()

	pruned := 0
	for key, b := range krl.buckets {
		if b.lastSeen.Load() < cutoff {
			delete(krl.buckets, key)
			pruned++
		}
	}
	return pruned
}

// StartCleanup prunes idle buckets every interval until Stop is called.
func (krl *KeyedRateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				krl.Prune()
			case <-krl.done:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

// retryAfter is the wait until one token is back, rounded up to a second.
func (krl *KeyedRateLimiter) retryAfter() int {
	if krl.limit <= 0 {
		return int(time.Hour.Seconds())
	}
	return int(1/float64(krl.limit)) + 1
}

// RateLimit throttles API requests: authenticated users by user id, everyone
// else by client IP.
func RateLimit(anon, user *KeyedRateLimiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			ctx.Next()
			return
		}

		limiter, key := anon, "ip:"+ctx.ClientIP()
		if claims, ok := CurrentClaims(ctx); ok {
			limiter, key = user, "user:"+strconv.FormatUint(uint64(claims.UserID), 10)
		}

		if !limiter.Allow(key) {
			ctx.Header("Retry-After", strconv.Itoa(limiter.retryAfter()))
			WriteError(ctx, &utils.AppError{Code: utils.CodeRateLimited, Message: "request was throttled"})
			return
		}
		ctx.Next()
	}
}
