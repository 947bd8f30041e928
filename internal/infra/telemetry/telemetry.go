package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/campuswell/wellness-api/internal/infra/config"
)

// Provider holds the service-level collectors. Request-level HTTP metrics
// are owned by the transport middleware; this covers domain counters.
type Provider struct {
	resendOutcomes *prometheus.CounterVec
}

// Attach registers the service collectors and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	outcomes := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus",
		Name:      "verification_resend_outcomes_total",
		Help:      "Resend limiter decisions by outcome",
	}, []string{"outcome"})

	return &Provider{resendOutcomes: outcomes}, nil
}

// ObserveResendOutcome records a limiter decision for a resend request.
func (p *Provider) ObserveResendOutcome(outcome string) {
	if p == nil || p.resendOutcomes == nil {
		return
	}
	p.resendOutcomes.WithLabelValues(outcome).Inc()
}
