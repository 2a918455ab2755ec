package providers

import (
	"os"
)

// TestConfig holds provider credentials loaded from environment variables.
// This allows tests to use the same configuration pattern as production.
type TestConfig struct {
	AIServicesEndpoint string
	AIServicesKey      string
	AIServicesRegion   string
	OpenAIAPIKey       string
}

// LoadTestConfig loads provider credentials from environment variables.
// Returns a TestConfig with whatever values are available.
func LoadTestConfig() TestConfig {
	return TestConfig{
		AIServicesEndpoint: os.Getenv("AI_SERVICES_ENDPOINT"),
		AIServicesKey:      os.Getenv("AI_SERVICES_KEY"),
		AIServicesRegion:   os.Getenv("AI_SERVICES_REGION"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
	}
}

// HasAzure returns true if the Azure AI services endpoint and key are configured.
func (c TestConfig) HasAzure() bool {
	return c.AIServicesEndpoint != "" && c.AIServicesKey != ""
}

// HasAzureSpeech returns true if Azure speech can be reached (needs a region).
func (c TestConfig) HasAzureSpeech() bool {
	return c.AIServicesKey != "" && c.AIServicesRegion != ""
}

// HasOpenAI returns true if an OpenAI API key is configured.
func (c TestConfig) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// ToRegistryConfig converts test config to a RegistryConfig for the provider registry.
// Only includes providers that have credentials configured.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	cfg := RegistryConfig{
		Vision:      make(map[string]ProviderConfig),
		Translation: make(map[string]ProviderConfig),
		Speech:      make(map[string]ProviderConfig),
	}

	if c.HasAzure() {
		cfg.Vision["azure"] = ProviderConfig{
			Type:     AzureVisionName,
			Endpoint: c.AIServicesEndpoint,
			APIKey:   c.AIServicesKey,
			Enabled:  true,
		}
		cfg.Translation["azure"] = ProviderConfig{
			Type:     AzureTranslatorName,
			Endpoint: c.AIServicesEndpoint,
			APIKey:   c.AIServicesKey,
			Region:   c.AIServicesRegion,
			Enabled:  true,
		}
	}
	if c.HasAzureSpeech() {
		cfg.Speech["azure"] = ProviderConfig{
			Type:    AzureSpeechName,
			APIKey:  c.AIServicesKey,
			Region:  c.AIServicesRegion,
			Enabled: true,
		}
	}
	if c.HasOpenAI() {
		cfg.Speech["openai"] = ProviderConfig{
			Type:    OpenAITTSName,
			APIKey:  c.OpenAIAPIKey,
			Enabled: true,
		}
	}

	return cfg
}
