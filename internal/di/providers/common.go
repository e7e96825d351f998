package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// cacheGCInterval is how often the suggestion cache reclaims expired entries.
	cacheGCInterval = 30 * time.Minute
)
