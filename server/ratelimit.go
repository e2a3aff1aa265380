package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"golang.org/x/time/rate"
)

const msgTooManyAttempts = "Too many login attempts, try again later"

// staleLimiterAge is how long an idle client keeps its limiter.
const staleLimiterAge = 30 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter throttles login attempts per client IP.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastPrune time.Time
}

// newIPLimiter allows perWindow attempts per window for each IP. A
// non-positive perWindow disables limiting.
func newIPLimiter(perWindow int, window time.Duration) *ipLimiter {
	if perWindow <= 0 {
		return nil
	}
	return &ipLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(window / time.Duration(perWindow)),
		burst:   perWindow,
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > staleLimiterAge {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > staleLimiterAge {
				delete(l.clients, key)
			}
		}
		l.lastPrune = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// retryAfter is the number of whole seconds until one more attempt is
// allowed.
func (l *ipLimiter) retryAfter() int {
	secs := int(time.Duration(float64(time.Second) / float64(l.limit)).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}

// LoginRateLimitMiddleware rejects login attempts beyond the configured rate
// with 429.
func (s *Server) LoginRateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if s.limiter.allow(ip, s.nowFunc()) {
			next(w, r)
			return
		}

		logger := logutil.GetOrDefault(r.Context())
		logger.Warn().Str("ip", ip).Msg("login rate limit exceeded")
		w.Header().Set("Retry-After", strconv.Itoa(s.limiter.retryAfter()))
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSONError(w, http.StatusTooManyRequests, "rate_limited", msgTooManyAttempts)
			return
		}
		http.Error(w, msgTooManyAttempts, http.StatusTooManyRequests)
	}
}
