package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry is the ordered set of endpoints served over HTTP and exposed
// under `sightread api`.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a registry holding eps in order.
func NewRegistry(eps ...Endpoint) *Registry {
	return &Registry{endpoints: append([]Endpoint(nil), eps...)}
}

// Register appends an endpoint.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes mounts every endpoint on mux as "METHOD /path".
// Handlers of endpoints that require init are wrapped with initMiddleware.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns the `api` command with one subcommand per endpoint
// that has a CLI counterpart. getServerURL is read when a command runs, after
// flags are parsed.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running sightread server via HTTP.

These commands require a running server (sightread serve).
Use --server to specify a custom server URL.

Examples:
  sightread api health                       # Check server health
  sightread api image-analysis photo.jpg     # Caption, OCR and translation
  sightread api describe photo.jpg --audio-out out.wav`,
	}

	for _, ep := range r.endpoints {
		if cmd := ep.Command(getServerURL); cmd != nil {
			apiCmd.AddCommand(cmd)
		}
	}

	return apiCmd
}

// Endpoints returns the registered endpoints in order.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
