package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/sightread/internal/api"
	"github.com/jackzampolin/sightread/internal/config"
	"github.com/jackzampolin/sightread/internal/home"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration",
}

var (
	initForce  bool
	initGlobal bool
)

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Long: `Write the default configuration to a YAML file.

Without a path the file is written to ./config.yaml, or with --global to
~/.sightread/config.yaml. An existing file is only replaced with --force.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		switch {
		case len(args) == 1:
			path = args[0]
		case initGlobal:
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			if err := h.EnsureExists(); err != nil {
				return err
			}
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

// configValue is one row of `config show`.
type configValue struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

var configShowCmd = &cobra.Command{
	Use:   "show [key...]",
	Short: "Show effective configuration values",
	Long: `Show the effective value of each known configuration key, after the
config file, .env file and environment have been applied.

Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigFile()
		if err != nil {
			return err
		}
		cm, err := config.NewManager(path)
		if err != nil {
			return err
		}

		descriptions := make(map[string]string)
		keys := args
		for _, e := range config.DefaultEntries() {
			descriptions[e.Key] = e.Description
			if len(args) == 0 {
				keys = append(keys, e.Key)
			}
		}

		values := make([]configValue, 0, len(keys))
		for _, key := range keys {
			v, err := cm.Lookup(key)
			if err != nil {
				return err
			}
			if key == "ai_services.key" {
				v = mask(v)
			}
			values = append(values, configValue{Key: key, Value: v, Description: descriptions[key]})
		}
		return api.Output(values)
	},
}

func mask(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	configInitCmd.Flags().BoolVar(&initGlobal, "global", false, "Write to the sightread home directory")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
