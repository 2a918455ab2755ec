package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jackzampolin/sightread/internal/config"
	"github.com/jackzampolin/sightread/internal/metrics"
	"github.com/jackzampolin/sightread/internal/providers"
	"github.com/jackzampolin/sightread/internal/svcctx"
)

// envVars are the unprefixed variables the config manager reads.
var envVars = []string{
	"AI_SERVICES_ENDPOINT", "AI_SERVICES_KEY", "AI_SERVICES_REGION", "ENV", "ALLOWED_ORIGINS",
}

// ServerConfig returns configuration values for creating a test server.
// This avoids importing the server package directly.
type ServerConfig struct {
	Host       string
	Port       string
	ConfigFile string
	Logger     *slog.Logger
}

// NewServerConfig creates configuration for a test server on a free port,
// with configYAML written to a temporary config file.
func NewServerConfig(t *testing.T, configYAML string) ServerConfig {
	t.Helper()

	port, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for HTTP: %v", err)
	}

	return ServerConfig{
		Host:       "127.0.0.1",
		Port:       port,
		ConfigFile: WriteConfig(t, configYAML),
		Logger:     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// URL returns the server URL for the given config.
func (c ServerConfig) URL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(c.Host, c.Port))
}

// WriteConfig writes content to config.yaml in a temp dir and returns its path.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// MaskEnv blanks the host's service variables for the rest of the test.
func MaskEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

// NewManager loads configYAML through a config.Manager with the host's
// service variables masked.
func NewManager(t *testing.T, configYAML string) *config.Manager {
	t.Helper()
	MaskEnv(t)
	cm, err := config.NewManager(WriteConfig(t, configYAML))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cm
}

// Mocks are the providers registered by NewServices.
type Mocks struct {
	Vision      *providers.MockVisionProvider
	Translation *providers.MockTranslationProvider
	Speech      *providers.MockSpeechProvider
}

// NewServices returns services whose registry holds mock providers under the
// default pipeline provider names, and a metrics recorder on a private
// Prometheus registry. Pointing the pipeline at another name leaves that
// stage without a provider.
func NewServices(t *testing.T, configYAML string) (*svcctx.Services, *Mocks, *prometheus.Registry) {
	t.Helper()

	cm := NewManager(t, configYAML)
	p := config.DefaultConfig().Pipeline

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	registry := providers.NewRegistry()
	registry.SetLogger(logger)

	mocks := &Mocks{
		Vision:      providers.NewMockVisionProvider(),
		Translation: providers.NewMockTranslationProvider(),
		Speech:      providers.NewMockSpeechProvider(),
	}
	registry.RegisterVision(p.VisionProvider, mocks.Vision)
	registry.RegisterTranslation(p.TranslationProvider, mocks.Translation)
	registry.RegisterSpeech(p.SpeechProvider, mocks.Speech)

	reg := prometheus.NewRegistry()
	return &svcctx.Services{
		Registry:      registry,
		ConfigManager: cm,
		Logger:        logger,
		Metrics:       metrics.NewRecorder(reg),
	}, mocks, reg
}

// WaitForServer polls /health until it answers 200.
func WaitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := &http.Client{Timeout: 2 * time.Second}
	err := retry.Do(
		func() error {
			resp, err := client.Get(url + "/health")
			if err != nil {
				return err
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health returned %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("server not ready after %v: %w", timeout, err)
	}
	return nil
}

// WaitForShutdown waits for a channel to receive a value or timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

// HTTPClient returns an HTTP client for making requests.
func HTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}

// StartServer is a helper type for managing server lifecycle in tests.
// Usage:
//
//	cfg := testutil.NewServerConfig(t, "")
//	srv, err := server.New(server.Config{...from cfg...})
//	starter := testutil.StartServer{Cancel: cancel, Done: done}
//	t.Cleanup(func() { starter.Stop() })
type StartServer struct {
	Cancel context.CancelFunc
	Done   <-chan error
}

// Stop cancels the server context and waits for shutdown.
func (s *StartServer) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Done != nil {
		<-s.Done
	}
}
