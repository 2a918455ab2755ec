package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint pairs an HTTP route with the CLI command that calls it, so the
// server and `sightread api` stay in step.
type Endpoint interface {
	// Route returns the method, the ServeMux path pattern and the handler.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit reports whether the route needs the pipeline's vision
	// provider registered. Such routes answer 503 until it is.
	RequiresInit() bool

	// Command returns the cobra command for this endpoint, or nil when the
	// route has no CLI counterpart. getServerURL is read when the command runs.
	Command(getServerURL func() string) *cobra.Command
}
