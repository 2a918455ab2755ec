package endpoints

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jackzampolin/sightread/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// Gatherer serves /metrics (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		&RootEndpoint{},

		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Pipeline endpoints
		&ImageAnalysisEndpoint{},
		&DescribeEndpoint{},

		&MetricsEndpoint{Gatherer: cfg.Gatherer},
	}
}
