package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackzampolin/sightread/internal/config"
	"github.com/jackzampolin/sightread/internal/server/endpoints"
	"github.com/jackzampolin/sightread/internal/testutil"
)

const credentialedConfig = `
ai_services:
  endpoint: https://example.cognitiveservices.azure.com
  key: test-key
  region: eastus
`

// startServer boots a server built from the config file and registers its shutdown.
func startServer(t *testing.T, cfg testutil.ServerConfig) (*Server, *config.Manager, *testutil.StartServer) {
	t.Helper()
	testutil.MaskEnv(t)

	cm, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		ConfigManager: cm,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		starter.Stop()
		t.Fatalf("server did not start: %v", err)
	}
	return srv, cm, starter
}

func getReady(t *testing.T, url string) (int, endpoints.HealthResponse) {
	t.Helper()
	resp, err := testutil.HTTPClient().Get(url + "/ready")
	if err != nil {
		t.Fatalf("ready request failed: %v", err)
	}
	defer resp.Body.Close()

	var ready endpoints.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&ready); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, ready
}

func TestServer_Lifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t, credentialedConfig)
	srv, _, starter := startServer(t, cfg)

	if !srv.IsRunning() {
		t.Error("IsRunning() = false, want true")
	}

	t.Run("root", func(t *testing.T) {
		resp, err := testutil.HTTPClient().Get(cfg.URL() + "/")
		if err != nil {
			t.Fatalf("root request failed: %v", err)
		}
		defer resp.Body.Close()

		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body["Hello"] != "World" {
			t.Errorf("body = %v, want Hello World", body)
		}
	})

	t.Run("providers registered from config", func(t *testing.T) {
		status, ready := getReady(t, cfg.URL())
		if status != http.StatusOK {
			t.Fatalf("ready status = %d, want %d", status, http.StatusOK)
		}
		if ready.Vision != "ok" || ready.Translation != "ok" || ready.Speech != "ok" {
			t.Errorf("ready = %+v, want all providers ok", ready)
		}
	})

	t.Run("double start", func(t *testing.T) {
		if err := srv.Start(context.Background()); err == nil {
			t.Error("second Start() succeeded, want error")
		}
	})

	starter.Cancel()
	if err := testutil.WaitForShutdown(starter.Done, 35*time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	starter.Done = nil

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
	if len(srv.Registry().ListVision()) != 0 {
		t.Error("providers still registered after shutdown")
	}
}

func TestServer_NoCredentials(t *testing.T) {
	cfg := testutil.NewServerConfig(t, "")
	_, _, starter := startServer(t, cfg)
	t.Cleanup(starter.Stop)

	status, ready := getReady(t, cfg.URL())
	if status != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want %d", status, http.StatusServiceUnavailable)
	}
	if ready.Vision != "not_configured" {
		t.Errorf("vision = %q, want not_configured", ready.Vision)
	}
}

func TestServer_HotReload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watcher test in short mode")
	}

	cfg := testutil.NewServerConfig(t, "log_level: info\n")
	_, cm, starter := startServer(t, cfg)
	t.Cleanup(starter.Stop)
	cm.WatchConfig()

	if status, _ := getReady(t, cfg.URL()); status != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d before reload, want 503", status)
	}

	if err := os.WriteFile(cfg.ConfigFile, []byte(credentialedConfig), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if status, _ := getReady(t, cfg.URL()); status == http.StatusOK {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("providers not registered after config change")
}

func TestServer_PortInUse(t *testing.T) {
	cfg := testutil.NewServerConfig(t, "")
	_, _, starter := startServer(t, cfg)
	t.Cleanup(starter.Stop)

	cm, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	second, err := New(Config{Host: cfg.Host, Port: cfg.Port, ConfigManager: cm, Logger: cfg.Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Error("Start() on a bound port succeeded, want error")
	}
	if second.IsRunning() {
		t.Error("IsRunning() = true after failed start")
	}
}
