package middlewares

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mbolis/survey-desk/httpx"
	"github.com/mbolis/survey-desk/log"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitors struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	expiry    time.Duration
	lastSweep time.Time
	byIP      map[string]*visitor
}

func (vs *visitors) get(ip string, now time.Time) *rate.Limiter {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if now.Sub(vs.lastSweep) > vs.expiry {
		for k, v := range vs.byIP {
			if now.Sub(v.lastSeen) > vs.expiry {
				delete(vs.byIP, k)
			}
		}
		vs.lastSweep = now
	}

	v, ok := vs.byIP[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(vs.limit, vs.burst)}
		vs.byIP[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit allows each client IP perMinute requests per minute, with
// bursts of up to burst requests. Clients over the limit get 429.
func RateLimit(perMinute int, burst int) func(http.Handler) http.Handler {
	vs := &visitors{
		limit:  rate.Every(time.Minute / time.Duration(perMinute)),
		burst:  burst,
		expiry: 3 * time.Minute,
		byIP:   make(map[string]*visitor),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !vs.get(ip, time.Now()).Allow() {
				httpx.LogStatusMsg(w, r, http.StatusTooManyRequests, log.InfoLevel, "rate_limit", "too many requests from %s", ip)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
