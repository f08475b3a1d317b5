// Package health aggregates readiness checks for the service dependencies.
package health

import "context"

// Check names reported in the readiness payload.
const (
	CheckIndexStore = "index_store"
	CheckEmbedding  = "embedding"
)

// Status is the readiness outcome with per-dependency detail.
type Status struct {
	Ready  bool
	Checks map[string]string // check name -> "ok" or the failure message
}

// Service runs readiness checks against the index store and embedding provider.
type Service struct {
	store StorePinger
	embed EmbedderChecker
}

// New creates a health service.
func New(store StorePinger, embed EmbedderChecker) *Service {
	return &Service{store: store, embed: embed}
}

// Ready probes every dependency and reports per-check results.
func (s *Service) Ready(ctx context.Context) Status {
	checks := make(map[string]string, 2)
	ready := true

	if err := s.store.Ping(ctx); err != nil {
		checks[CheckIndexStore] = err.Error()
		ready = false
	} else {
		checks[CheckIndexStore] = "ok"
	}

	if err := s.embed.HealthCheck(ctx); err != nil {
		checks[CheckEmbedding] = err.Error()
		ready = false
	} else {
		checks[CheckEmbedding] = "ok"
	}

	return Status{Ready: ready, Checks: checks}
}
