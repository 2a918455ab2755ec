package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/sightread/internal/config"
	"github.com/jackzampolin/sightread/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sightread server",
	Long: `Start the sightread HTTP server.

Configuration is read from the config file, a .env file and the
environment (AI_SERVICES_ENDPOINT, AI_SERVICES_KEY, AI_SERVICES_REGION,
ENV, ALLOWED_ORIGINS). The server refuses to start when the pipeline's
providers have no credentials. Changes to the config file are applied
without a restart.

The server provides:
  - /               - Hello world
  - /image-analysis - Caption, OCR and translation
  - /describe       - Caption, OCR, translation and speech
  - /health, /ready, /status, /metrics

Examples:
  sightread serve                    # Start on 0.0.0.0:8000
  sightread serve --port 3000        # Start on custom port
  sightread serve --host 127.0.0.1   # Bind to loopback only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path, err := resolveConfigFile()
		if err != nil {
			return err
		}
		cm, err := config.NewManager(path)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		if err := cfg.Validate(); err != nil {
			logger.Error("invalid configuration", "error", err)
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if f := cm.ConfigFile(); f != "" {
			logger.Info("using config file", "path", f)
			cm.WatchConfig()
		}

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// newLogger builds the text logger. --log-level wins over the config value.
func newLogger(configured string) (*slog.Logger, error) {
	name := configured
	if logLevel != "" {
		name = logLevel
	}
	var level slog.Level
	if name != "" {
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", name, err)
		}
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})), nil
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host to bind to (default: server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8000", "Port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
