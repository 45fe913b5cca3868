package authapi

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/classify"
)

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu       sync.RWMutex
	limiters map[string]*ipEntry
	lastGC   time.Time
}

type ipEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute, burst int, idleTTL time.Duration) *ipLimiter {
	return &ipLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idleTTL:  idleTTL,
		limiters: make(map[string]*ipEntry),
	}
}

// getOrCreate retrieves an existing limiter or creates a new one.
func (l *ipLimiter) getOrCreate(key string, now time.Time) *rate.Limiter {
	l.mu.RLock()
	e, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		l.mu.Lock()
		e.lastSeen = now
		l.mu.Unlock()
		return e.lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := l.limiters[key]; ok {
		e.lastSeen = now
		return e.lim
	}
	l.gcLocked(now)

	e = &ipEntry{lim: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.limiters[key] = e
	return e.lim
}

// gcLocked drops idle limiters at most once per idleTTL. Caller holds mu.
func (l *ipLimiter) gcLocked(now time.Time) {
	if now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	l.lastGC = now
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.limiters, k)
		}
	}
}

// allow consumes one token for key. When refused it returns how long until one is available.
func (l *ipLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	lim := l.getOrCreate(key, now)
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

func (l *ipLimiter) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64(math.Ceil(retryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeErrorStatus(w, http.StatusTooManyRequests, classify.KindTransient, msgRateLimited)
}
