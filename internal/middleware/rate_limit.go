// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/javajoker/license-backend/internal/utils"
)

// Limiter decides whether a client may proceed.
type Limiter interface {
	Allow(id string) bool
}

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter admits at most limit calls per client in each window.
// State lives in memory only and is lost on restart.
type FixedWindowLimiter struct {
	mtx     sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewFixedWindowLimiter(limit int, period time.Duration) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go l.cleanupWindows()

	return l
}

// Allow counts one call for id. The check and the increment happen under
// the same lock, so concurrent callers can never both take the last slot.
func (l *FixedWindowLimiter) Allow(id string) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	now := l.now()
	w, exists := l.windows[id]
	if !exists || now.After(w.resetAt) {
		l.windows[id] = &window{count: 1, resetAt: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Stop ends the cleanup goroutine.
func (l *FixedWindowLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *FixedWindowLimiter) cleanupWindows() {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *FixedWindowLimiter) sweep() {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	now := l.now()
	for id, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, id)
		}
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int

	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		stop:     make(chan struct{}),
	}

	// Clean up old visitors every minute
	go rl.cleanupVisitors()

	return rl
}

func (rl *RateLimiter) Allow(id string) bool {
	return rl.getVisitor(id).Allow()
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mtx.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mtx.Unlock()
		}
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// RateLimit rejects callers over limit with 429 before the handler runs.
func RateLimit(limiter Limiter, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := utils.ClientID(c)
		if !limiter.Allow(id) {
			logrus.WithFields(logrus.Fields{
				"client": id,
				"path":   c.Request.URL.Path,
			}).Warn("Rate limit exceeded")
			metrics.ObserveRateLimited(c.FullPath())
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
