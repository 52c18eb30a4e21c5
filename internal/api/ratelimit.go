package api

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dstuartbryant/spacewego/internal/httputil"
	"github.com/dstuartbryant/spacewego/internal/metrics"
)

// idleEviction is how long a client's bucket survives without requests.
const idleEviction = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	r         rate.Limit
	b         int
	lastSweep time.Time
	now       func() time.Time
}

func perMinute(n int) rate.Limit { return rate.Limit(float64(n) / 60) }

func newIPRateLimiter(requestsPerMinute, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		visitors:  make(map[string]*visitor),
		r:         perMinute(requestsPerMinute),
		b:         burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// get returns the bucket for ip, creating it on first use, and drops
// buckets idle for longer than idleEviction.
func (l *ipRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleEviction {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.b)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// setLimit changes the rate for new and existing clients.
func (l *ipRateLimiter) setLimit(requestsPerMinute, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r, l.b = perMinute(requestsPerMinute), burst
	for _, v := range l.visitors {
		v.limiter.SetLimit(l.r)
		v.limiter.SetBurst(l.b)
	}
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func clientIP(c *gin.Context, trustProxy bool) string {
	return httputil.ClientIP(c.Request, trustProxy)
}

// rateLimit rejects requests over the client's budget with 429.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := s.limiter.get(clientIP(c, s.trustProxy))
		if lim.Allow() {
			c.Next()
			return
		}
		metrics.RecordRateLimited(c.FullPath())
		retry := 60
		if r := float64(lim.Limit()); r > 0 {
			retry = int(math.Ceil(1/r - 1e-9))
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
}
