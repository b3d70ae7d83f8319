package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// slidingWindow counts requests per client IP in fixed-length windows. Kept
// in-process: each instance of the engine guards its own door, which is
// enough to blunt brute-force logins and runaway clients.
type slidingWindow struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count     int
	windowEnd time.Time
}

func newSlidingWindow() *slidingWindow {
	return &slidingWindow{entries: make(map[string]*windowEntry)}
}

// allow counts one request for ip and reports whether it stays within limit.
// The second return is when the current window ends, for Retry-After.
func (w *slidingWindow) allow(ip string, limit int, window time.Duration) (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	entry, ok := w.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &windowEntry{windowEnd: now.Add(window)}
		w.entries[ip] = entry
	}
	entry.count++
	return entry.count <= limit, entry.windowEnd
}

// purge drops expired entries so IPs that never return do not accumulate.
func (w *slidingWindow) purge(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	purged := 0
	for ip, entry := range w.entries {
		if now.After(entry.windowEnd) {
			delete(w.entries, ip)
			purged++
		}
	}
	return purged
}

var (
	loginWindow = newSlidingWindow()
	apiWindow   = newSlidingWindow()
)

// LoginRateLimiter caps login attempts at 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, _ := loginWindow.allow(c.ClientIP(), 20, time.Minute)
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("too many login attempts, retry in a minute"))
			return
		}
		c.Next()
	}
}

// RateLimiter is the general API limiter applied to the whole router.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := apiWindow.allow(c.ClientIP(), limit, window)
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("too many requests, retry shortly"))
			return
		}
		c.Next()
	}
}

const purgeInterval = 5 * time.Minute

func init() {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for range ticker.C {
			now := time.Now()
			purged := loginWindow.purge(now) + apiWindow.purge(now)
			if purged > 0 {
				log.Debug().Int("purged", purged).Msg("rate limiter entries purged")
			}
		}
	}()
}
