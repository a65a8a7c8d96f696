package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ka-abfall/abfallbot/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes answers liveness as long as the process runs and readiness from the
// aggregated component checks.
type Probes struct {
	checker *health.Checker
	log     *slog.Logger
}

// NewProbes creates a new Probes instance.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Liveness always reports success; an unresponsive process fails the probe by
// not answering at all.
func (p *Probes) Liveness(ctx context.Context) error {
	return nil
}

// Readiness fails when any registered component check fails.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.checker == nil {
		return nil
	}

	for name, status := range p.checker.Check(ctx) {
		if status != "OK" {
			return fmt.Errorf("component %s not ready: %s", name, status)
		}
	}
	return nil
}
