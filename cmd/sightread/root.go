package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/sightread/internal/api"
	"github.com/jackzampolin/sightread/internal/home"
	"github.com/jackzampolin/sightread/version"
)

var (
	cfgFile      string
	homeDir      string
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "sightread",
	Short: "Describe images aloud: caption, OCR, translation and speech",
	Long: `Sightread is an HTTP service that describes images for people who
cannot see them.

For each image it:
  - Asks a vision provider for a caption and the text in the image
  - Builds a short summary from the caption and the confidently read words
  - Translates the summary (English to Indonesian by default)
  - Synthesizes speech for the translation`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.sightread/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "sightread home directory (default: ~/.sightread)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default: log_level from config)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// resolveConfigFile returns --config, or the config file in --home when one
// exists there. An empty result lets the config manager search its defaults.
func resolveConfigFile() (string, error) {
	if cfgFile != "" || homeDir == "" {
		return cfgFile, nil
	}
	h, err := home.New(homeDir)
	if err != nil {
		return "", err
	}
	if h.ConfigExists() {
		return h.ConfigPath(), nil
	}
	return "", nil
}
