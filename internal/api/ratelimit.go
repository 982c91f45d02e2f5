package api

import (
	"time"

	"github.com/listenupapp/shelf/internal/ratelimit"
)

// RateLimiter throttles requests per key.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter allows ratePerInterval requests per interval with the given burst.
func NewRateLimiter(ratePerInterval float64, interval time.Duration, burst int) *RateLimiter {
	return ratelimit.New(ratePerInterval/interval.Seconds(), burst)
}
