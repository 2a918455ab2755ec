package config

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/sightread/internal/providers"
)

// Config holds sightread configuration.
// Loaded from ./config.yaml, $HOME/.sightread/config.yaml or --config.
type Config struct {
	LogLevel   string        `mapstructure:"log_level" yaml:"log_level"`
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	AIServices AIServicesCfg `mapstructure:"ai_services" yaml:"ai_services"`

	VisionProviders      map[string]ProviderCfg `mapstructure:"vision_providers" yaml:"vision_providers"`
	TranslationProviders map[string]ProviderCfg `mapstructure:"translation_providers" yaml:"translation_providers"`
	SpeechProviders      map[string]ProviderCfg `mapstructure:"speech_providers" yaml:"speech_providers"`

	Pipeline PipelineCfg `mapstructure:"pipeline" yaml:"pipeline"`
}

// ServerCfg configures the HTTP listener and cross-origin policy.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`

	// Env is "production" to restrict CORS to AllowedOrigins.
	Env            string   `mapstructure:"env" yaml:"env"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// AIServicesCfg holds the shared Azure AI services credentials. Azure
// providers without their own endpoint, key or region fall back to these.
type AIServicesCfg struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Key      string `mapstructure:"key" yaml:"key"`
	Region   string `mapstructure:"region" yaml:"region"`
}

// ProviderCfg configures a vision, translation or speech provider.
type ProviderCfg struct {
	Type            string `mapstructure:"type" yaml:"type"`         // "azure-vision", "google-translate", "openai-tts", ...
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"` // Service endpoint or base URL
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	Region          string `mapstructure:"region" yaml:"region"`
	Model           string `mapstructure:"model" yaml:"model"`
	Voice           string `mapstructure:"voice" yaml:"voice"`
	Format          string `mapstructure:"format" yaml:"format"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"` // Google service account file
	Timeout         string `mapstructure:"timeout" yaml:"timeout"`                   // Go duration, e.g. "30s"
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
}

// PipelineCfg selects the providers and languages used per request.
type PipelineCfg struct {
	VisionProvider      string `mapstructure:"vision_provider" yaml:"vision_provider"`
	TranslationProvider string `mapstructure:"translation_provider" yaml:"translation_provider"`
	SpeechProvider      string `mapstructure:"speech_provider" yaml:"speech_provider"`

	// Translate enables the translation stage on /image-analysis.
	Translate bool `mapstructure:"translate" yaml:"translate"`

	SourceLanguage string `mapstructure:"source_language" yaml:"source_language"`
	TargetLanguage string `mapstructure:"target_language" yaml:"target_language"`
	Voice          string `mapstructure:"voice" yaml:"voice"`
}

// EnvProduction is the Server.Env value that restricts CORS.
const EnvProduction = "production"

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerCfg{
			Host: "0.0.0.0",
			Port: "8000",
		},
		VisionProviders: map[string]ProviderCfg{
			"azure": {
				Type:    providers.AzureVisionName,
				Enabled: true,
			},
		},
		TranslationProviders: map[string]ProviderCfg{
			"azure": {
				Type:    providers.AzureTranslatorName,
				Enabled: true,
			},
		},
		SpeechProviders: map[string]ProviderCfg{
			"azure": {
				Type:    providers.AzureSpeechName,
				Voice:   providers.AzureSpeechDefaultVoice,
				Enabled: true,
			},
		},
		Pipeline: PipelineCfg{
			VisionProvider:      "azure",
			TranslationProvider: "azure",
			SpeechProvider:      "azure",
			Translate:           true,
			SourceLanguage:      "en",
			TargetLanguage:      "id",
			Voice:               providers.AzureSpeechDefaultVoice,
		},
	}
}

// IsProduction reports whether the server runs with a restricted CORS policy.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Server.Env), EnvProduction)
}

// CORSOrigins returns the origins allowed to make cross-origin requests.
// Outside production every origin is allowed, including "null" (file://).
func (c *Config) CORSOrigins() []string {
	if !c.IsProduction() {
		return []string{"*", "null"}
	}
	var origins []string
	for _, entry := range c.Server.AllowedOrigins {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return origins
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Validate checks that the providers the pipeline depends on have credentials
// and that production mode names its allowed origins.
func (c *Config) Validate() error {
	reg := c.ToProviderRegistryConfig()

	check := func(kind, name string, cfgs map[string]providers.ProviderConfig) error {
		if name == "" {
			return fmt.Errorf("pipeline.%s_provider is not set", kind)
		}
		p, ok := cfgs[name]
		if !ok {
			return fmt.Errorf("%s provider %q is not configured", kind, name)
		}
		if !p.Enabled {
			return fmt.Errorf("%s provider %q is disabled", kind, name)
		}
		if p.APIKey == "" && p.CredentialsFile == "" {
			return fmt.Errorf("%s provider %q has no credentials (set AI_SERVICES_KEY or api_key)", kind, name)
		}
		if isAzureType(p.Type) && p.Type != providers.AzureSpeechName && p.Endpoint == "" {
			return fmt.Errorf("%s provider %q has no endpoint (set AI_SERVICES_ENDPOINT or endpoint)", kind, name)
		}
		return nil
	}

	if err := check("vision", c.Pipeline.VisionProvider, reg.Vision); err != nil {
		return err
	}
	if err := check("translation", c.Pipeline.TranslationProvider, reg.Translation); err != nil {
		return err
	}
	if err := check("speech", c.Pipeline.SpeechProvider, reg.Speech); err != nil {
		return err
	}

	if c.IsProduction() && len(c.CORSOrigins()) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS must be set when ENV=%s", EnvProduction)
	}
	return nil
}

func isAzureType(t string) bool {
	return strings.HasPrefix(t, "azure-")
}
