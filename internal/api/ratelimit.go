package api

import (
	"context"

	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/logger"
	"github.com/archipelago/notes-api/internal/ratelimit"
)

// newPerMinuteLimiter converts a per-minute budget to the limiter's
// per-second rate. For example 20 per minute is 0.333 rps.
func newPerMinuteLimiter(perMinute, burst int) *ratelimit.KeyedRateLimiter {
	return ratelimit.New(float64(perMinute)/60, burst)
}

// checkRateLimit consumes one token for key and returns a 429 error when
// the bucket is empty.
func (s *Server) checkRateLimit(ctx context.Context, limiter *ratelimit.KeyedRateLimiter, scope, key string) error {
	if limiter.Allow(key) {
		return nil
	}

	logger.FromContext(ctx, s.logger).Warn("rate limit exceeded",
		"scope", scope,
		"key", key,
	)
	return domainerrors.TooManyRequests("too many requests, please try again later")
}
