package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/sightread/internal/api"
	"github.com/jackzampolin/sightread/internal/svcctx"
	"github.com/jackzampolin/sightread/version"
)

const (
	stateOK            = "ok"
	stateNotConfigured = "not_configured"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status      string `json:"status"`
	Vision      string `json:"vision,omitempty"`
	Translation string `json:"translation,omitempty"`
	Speech      string `json:"speech,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: stateOK})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Ready once the pipeline's vision provider is registered
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	registry := svcctx.RegistryFrom(r.Context())
	cfg := svcctx.ConfigFrom(r.Context())
	if registry == nil || cfg == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}

	p := cfg.Pipeline
	resp := HealthResponse{
		Status:      stateOK,
		Vision:      providerState(registry.HasVision(p.VisionProvider)),
		Translation: providerState(registry.HasTranslation(p.TranslationProvider)),
		Speech:      providerState(registry.HasSpeech(p.SpeechProvider)),
	}
	if resp.Vision != stateOK {
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func providerState(ok bool) string {
	if ok {
		return stateOK
	}
	return stateNotConfigured
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (pipeline providers registered)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			err := client.Get(cmd.Context(), "/ready", &resp)
			if err != nil {
				if _, ok := api.IsHTTPError(err); !ok {
					return err
				}
			}
			fmt.Printf("Status:      %s\n", resp.Status)
			fmt.Printf("Vision:      %s\n", resp.Vision)
			fmt.Printf("Translation: %s\n", resp.Translation)
			fmt.Printf("Speech:      %s\n", resp.Speech)
			return err
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Version   string          `json:"version"`
	Env       string          `json:"env"`
	Pipeline  PipelineStatus  `json:"pipeline"`
	Providers ProvidersStatus `json:"providers"`
}

// PipelineStatus shows which providers the pipeline uses.
type PipelineStatus struct {
	Vision         string `json:"vision"`
	Translation    string `json:"translation"`
	Speech         string `json:"speech"`
	Translate      bool   `json:"translate"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Voice          string `json:"voice"`
}

// ProvidersStatus shows registered providers by kind.
type ProvidersStatus struct {
	Vision      []string `json:"vision"`
	Translation []string `json:"translation"`
	Speech      []string `json:"speech"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Server status
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Server:  "running",
		Version: version.GitRelease,
	}

	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil {
		resp.Env = cfg.Server.Env
		resp.Pipeline = PipelineStatus{
			Vision:         cfg.Pipeline.VisionProvider,
			Translation:    cfg.Pipeline.TranslationProvider,
			Speech:         cfg.Pipeline.SpeechProvider,
			Translate:      cfg.Pipeline.Translate,
			SourceLanguage: cfg.Pipeline.SourceLanguage,
			TargetLanguage: cfg.Pipeline.TargetLanguage,
			Voice:          cfg.Pipeline.Voice,
		}
	}

	if registry := svcctx.RegistryFrom(r.Context()); registry != nil {
		resp.Providers.Vision = registry.ListVision()
		resp.Providers.Translation = registry.ListTranslation()
		resp.Providers.Speech = registry.ListSpeech()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Detail: msg})
}
