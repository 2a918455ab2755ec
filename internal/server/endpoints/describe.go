package endpoints

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/sightread/internal/api"
	"github.com/jackzampolin/sightread/internal/describe"
	"github.com/jackzampolin/sightread/internal/svcctx"
)

// AnalysisRequest is the request body for the image endpoints.
type AnalysisRequest struct {
	Base64Image string `json:"base64_image"`
}

const analysisRequestSchema = `{
	"type": "object",
	"required": ["base64_image"],
	"properties": {
		"base64_image": {"type": "string"}
	}
}`

var requestSchema = mustCompileSchema("analysis_request.json", analysisRequestSchema)

func mustCompileSchema(name, raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("failed to load schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema %s: %v", name, err))
	}
	return schema
}

// decodeAnalysisRequest reads and validates the request body.
func decodeAnalysisRequest(r *http.Request) (*AnalysisRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := requestSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("request does not match schema: %w", err)
	}

	var req AnalysisRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return &req, nil
}

// pipelineFor builds a Pipeline from the providers currently registered for
// the configured pipeline. Stage providers that are missing are left nil and
// reported by Run after the image has been decoded.
func pipelineFor(ctx context.Context) (*describe.Pipeline, error) {
	registry := svcctx.RegistryFrom(ctx)
	cfg := svcctx.ConfigFrom(ctx)
	if registry == nil || cfg == nil {
		return nil, fmt.Errorf("services not initialized: %w", describe.ErrProviderUnavailable)
	}
	p := cfg.Pipeline

	vision, err := registry.GetVision(p.VisionProvider)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, describe.ErrProviderUnavailable)
	}

	pcfg := describe.Config{
		Vision:         vision,
		SourceLanguage: p.SourceLanguage,
		TargetLanguage: p.TargetLanguage,
		Voice:          p.Voice,
		Metrics:        svcctx.MetricsFrom(ctx),
		Logger:         svcctx.LoggerFrom(ctx),
	}
	if t, err := registry.GetTranslation(p.TranslationProvider); err == nil {
		pcfg.Translation = t
	}
	if s, err := registry.GetSpeech(p.SpeechProvider); err == nil {
		pcfg.Speech = s
	}
	return describe.New(pcfg)
}

// serveAnalysis runs the pipeline with the given stages and writes the result.
func serveAnalysis(w http.ResponseWriter, r *http.Request, stages func(ctx context.Context) describe.Stages) {
	req, err := decodeAnalysisRequest(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// A started pipeline runs to completion even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())

	pipeline, err := pipelineFor(ctx)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}

	resp, err := pipeline.Run(ctx, req.Base64Image, stages(ctx))
	if err != nil {
		writePipelineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writePipelineError maps pipeline errors to HTTP responses. Upstream
// failures get a generic detail; the cause is logged.
func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, describe.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid image data")
	case errors.Is(err, describe.ErrSynthesisFailed):
		writeError(w, http.StatusInternalServerError, "Failed to synthesize audio")
	case errors.Is(err, describe.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		svcctx.LoggerFrom(r.Context()).Error("pipeline failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// ImageAnalysisEndpoint handles POST /image-analysis.
type ImageAnalysisEndpoint struct{}

func (e *ImageAnalysisEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/image-analysis", e.handler
}

func (e *ImageAnalysisEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Analyze an image
//	@Description	Caption and OCR an image, build the summary text and, when pipeline.translate is set, translate it
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AnalysisRequest	true	"Base64 image"
//	@Success		200		{object}	describe.Response
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/image-analysis [post]
func (e *ImageAnalysisEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveAnalysis(w, r, func(ctx context.Context) describe.Stages {
		translate := true
		if cfg := svcctx.ConfigFrom(ctx); cfg != nil {
			translate = cfg.Pipeline.Translate
		}
		return describe.Stages{Translate: translate}
	})
}

func (e *ImageAnalysisEndpoint) Command(getServerURL func() string) *cobra.Command {
	var opts imageCommandOptions
	cmd := &cobra.Command{
		Use:   "image-analysis <image-file>",
		Short: "Caption, OCR and translate an image",
		Long: `Send an image to the server for captioning and OCR.

The response contains the caption, the OCR lines and the summary text,
plus its translation when the server has translation enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postImage(cmd.Context(), getServerURL(), "/image-analysis", args[0], opts)
		},
	}
	opts.bind(cmd, false)
	return cmd
}

// DescribeEndpoint handles POST /describe.
type DescribeEndpoint struct{}

func (e *DescribeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/describe", e.handler
}

func (e *DescribeEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Describe an image aloud
//	@Description	Caption and OCR an image, translate the summary text and synthesize speech for the translation
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AnalysisRequest	true	"Base64 image"
//	@Success		200		{object}	describe.Response
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/describe [post]
func (e *DescribeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveAnalysis(w, r, func(context.Context) describe.Stages {
		return describe.Stages{Translate: true, Speak: true}
	})
}

func (e *DescribeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var opts imageCommandOptions
	cmd := &cobra.Command{
		Use:   "describe <image-file>",
		Short: "Caption, OCR, translate and speak an image",
		Long: `Send an image to the server for the full pipeline: caption, OCR,
translation and speech synthesis.

Use --audio-out to write the synthesized audio to a file instead of
printing it as base64.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postImage(cmd.Context(), getServerURL(), "/describe", args[0], opts)
		},
	}
	opts.bind(cmd, true)
	return cmd
}

type imageCommandOptions struct {
	audioOut string
	wait     bool
	attempts uint
	delay    time.Duration
}

func (o *imageCommandOptions) bind(cmd *cobra.Command, audio bool) {
	if audio {
		cmd.Flags().StringVar(&o.audioOut, "audio-out", "", "Write decoded audio to this file")
	}
	cmd.Flags().BoolVar(&o.wait, "wait", false, "Wait for the server to become healthy before posting")
	cmd.Flags().UintVar(&o.attempts, "wait-attempts", 30, "Health checks to try with --wait")
	cmd.Flags().DurationVar(&o.delay, "wait-delay", time.Second, "Delay between health checks with --wait")
}

// postImage reads an image file, posts it base64-encoded and prints the response.
func postImage(ctx context.Context, serverURL, path, file string, opts imageCommandOptions) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	client := api.NewClient(serverURL)
	if opts.wait {
		if err := client.WaitHealthy(ctx, opts.attempts, opts.delay); err != nil {
			return err
		}
	}

	var resp map[string]any
	if err := client.Post(ctx, path, AnalysisRequest{
		Base64Image: base64.StdEncoding.EncodeToString(data),
	}, &resp); err != nil {
		return err
	}

	if opts.audioOut != "" {
		if encoded, ok := resp["audio"].(string); ok {
			audio, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return fmt.Errorf("failed to decode audio: %w", err)
			}
			if err := os.WriteFile(opts.audioOut, audio, 0o644); err != nil {
				return fmt.Errorf("failed to write audio: %w", err)
			}
			delete(resp, "audio")
			resp["audio_file"] = opts.audioOut
		}
	}

	return api.Output(resp)
}
