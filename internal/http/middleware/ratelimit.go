package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorSweepInterval = time.Minute
	visitorIdleTimeout   = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors hands out one token bucket per client IP and forgets idle ones.
type visitors struct {
	mu        sync.Mutex
	byIP      map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newVisitors(rps float64, burst int) *visitors {
	return &visitors{
		byIP:  make(map[string]*visitor),
		limit: rate.Limit(rps),
		burst: burst,
		now:   time.Now,
	}
}

func (v *visitors) allow(ip string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if now.Sub(v.lastSweep) > visitorSweepInterval {
		for key, item := range v.byIP {
			if now.Sub(item.lastSeen) > visitorIdleTimeout {
				delete(v.byIP, key)
			}
		}
		v.lastSweep = now
	}

	item, ok := v.byIP[ip]
	if !ok {
		item = &visitor{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.byIP[ip] = item
	}
	item.lastSeen = now
	return item.limiter.AllowN(now, 1)
}

// RateLimit throttles requests per client IP. Health checks are never
// limited.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}
	limiter := newVisitors(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || limiter.allow(extractIP(r.RemoteAddr)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"rate_limited","message":"too many requests"},"request_id":"` + GetRequestID(r.Context()) + `"}`))
		})
	}
}

func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
