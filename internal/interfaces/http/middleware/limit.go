package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// InFlightLimiter caps the number of requests served at once. Planning is
// CPU bound, so excess requests are refused instead of queued.
type InFlightLimiter struct {
	slots      chan struct{}
	retryAfter int
}

// NewInFlightLimiter allows up to n concurrent requests. n < 1 means 1.
func NewInFlightLimiter(n int) *InFlightLimiter {
	if n < 1 {
		n = 1
	}
	return &InFlightLimiter{slots: make(chan struct{}, n), retryAfter: 1}
}

// Handler answers 429 with Retry-After when every slot is taken.
func (l *InFlightLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case l.slots <- struct{}{}:
			defer func() { <-l.slots }()
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code":    "TOO_MANY_REQUESTS",
				"message": "too many plans in flight",
			})
		}
	})
}

// InFlight returns the number of occupied slots.
func (l *InFlightLimiter) InFlight() int { return len(l.slots) }

//Personal.AI order the ending
