package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/sightread/internal/providers"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// A .env file in the working directory, if present, is loaded into the
// process environment first; variables already set are not overridden.
func NewManager(cfgFile string) (*Manager, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults, environment bindings and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v

	for _, e := range DefaultEntries() {
		v.SetDefault(e.Key, e.Value)
	}

	// Environment variables with SIGHTREAD_ prefix, e.g. SIGHTREAD_PIPELINE_TRANSLATE
	v.SetEnvPrefix("SIGHTREAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by existing deployments
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "SIGHTREAD_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sightread")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

var legacyEnv = map[string]string{
	"ai_services.endpoint":   "AI_SERVICES_ENDPOINT",
	"ai_services.key":        "AI_SERVICES_KEY",
	"ai_services.region":     "AI_SERVICES_REGION",
	"server.env":             "ENV",
	"server.allowed_origins": "ALLOWED_ORIGINS",
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the path of the loaded config file, or "" if none.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references and fills Azure providers' missing
// endpoint, key and region from the shared AI services settings.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	return providers.RegistryConfig{
		Vision:      c.resolveProviders(c.VisionProviders),
		Translation: c.resolveProviders(c.TranslationProviders),
		Speech:      c.resolveProviders(c.SpeechProviders),
	}
}

func (c *Config) resolveProviders(in map[string]ProviderCfg) map[string]providers.ProviderConfig {
	out := make(map[string]providers.ProviderConfig, len(in))
	for name, p := range in {
		resolved := providers.ProviderConfig{
			Type:            p.Type,
			Endpoint:        ResolveEnvVars(p.Endpoint),
			APIKey:          ResolveEnvVars(p.APIKey),
			Region:          ResolveEnvVars(p.Region),
			Model:           p.Model,
			Voice:           p.Voice,
			Format:          p.Format,
			CredentialsFile: ResolveEnvVars(p.CredentialsFile),
			Enabled:         p.Enabled,
		}
		if p.Timeout != "" {
			if d, err := time.ParseDuration(p.Timeout); err == nil {
				resolved.Timeout = d
			}
		}
		if isAzureType(p.Type) {
			if resolved.Endpoint == "" && p.Type != providers.AzureSpeechName {
				resolved.Endpoint = ResolveEnvVars(c.AIServices.Endpoint)
			}
			if resolved.APIKey == "" {
				resolved.APIKey = ResolveEnvVars(c.AIServices.Key)
			}
			if resolved.Region == "" {
				resolved.Region = ResolveEnvVars(c.AIServices.Region)
			}
		}
		out[name] = resolved
	}
	return out
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# sightread configuration
# API keys use ${ENV_VAR} syntax to reference environment variables.
# Azure providers fall back to ai_services, which also reads
# AI_SERVICES_ENDPOINT, AI_SERVICES_KEY and AI_SERVICES_REGION.
# ENV=production restricts CORS to ALLOWED_ORIGINS (comma separated).

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
