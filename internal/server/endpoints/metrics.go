package endpoints

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// MetricsEndpoint handles GET /metrics in the Prometheus exposition format.
type MetricsEndpoint struct {
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

func (e *MetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	g := e.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return "GET", "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}).ServeHTTP
}

func (e *MetricsEndpoint) RequiresInit() bool { return false }

// Command returns nil: metrics are scraped, not read from the CLI.
func (e *MetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}
