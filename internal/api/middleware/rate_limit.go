package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/platform/config"
	"qualifyr/internal/platform/models"
)

type RateLimiter struct {
	store   *sync.Map // map[string]*Bucket
	limits  map[string]int
	enabled bool
}

type Bucket struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
	// We need to know when it was last accessed to clean it up
	lastAccess time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		store: &sync.Map{},
		limits: map[string]int{
			"api_read":  cfg.APIReadPerMinute,
			"api_write": cfg.APIWritePerMinute,
		},
		enabled: cfg.Enabled,
	}

	// Start cleanup routine
	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.store.Range(func(key, value interface{}) bool {
			bucket := value.(*Bucket)
			bucket.mu.Lock()
			// If not accessed in last 10 minutes, delete it
			if now.Sub(bucket.lastAccess) > 10*time.Minute {
				rl.store.Delete(key)
			}
			bucket.mu.Unlock()
			return true
		})
	}
}

func (rl *RateLimiter) Allow(key string, limit int) bool {
	now := time.Now()

	val, _ := rl.store.LoadOrStore(key, &Bucket{
		tokens:     limit,
		lastRefill: now,
		lastAccess: now,
	})

	bucket := val.(*Bucket)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.lastAccess = now

	// Refill bucket
	elapsed := now.Sub(bucket.lastRefill)

	// Rate is limit / 60 seconds
	refillRate := float64(limit) / 60.0
	refillTokens := int(elapsed.Seconds() * refillRate)

	if refillTokens > 0 {
		if bucket.tokens+refillTokens > limit {
			bucket.tokens = limit
		} else {
			bucket.tokens += refillTokens
		}
		bucket.lastRefill = now
	}

	// Check availability
	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// Class limits one request class per account. Before authentication has
// populated the context the remote address stands in for the account.
func (rl *RateLimiter) Class(class string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rl.enabled {
				next(w, r)
				return
			}

			key := r.RemoteAddr
			if account, ok := r.Context().Value(apiContext.Account).(*models.Account); ok && account != nil {
				key = account.ID
			}

			limit, ok := rl.limits[class]
			if !ok || limit <= 0 {
				limit = 100
			}

			if !rl.Allow(fmt.Sprintf("%s:%s", key, class), limit) {
				w.Header().Set("Retry-After", "60")
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
				return
			}

			next(w, r)
		}
	}
}
