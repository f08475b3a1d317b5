package health

import "context"

// StorePinger checks index store connectivity.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbedderChecker checks embedding provider availability.
type EmbedderChecker interface {
	HealthCheck(ctx context.Context) error
}
