package config

import (
	"errors"
	"fmt"
	"sort"
	"unicode"
)

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is a single leaf configuration key with its default value.
type Entry struct {
	Key         string
	Value       any
	Description string
}

// DefaultEntries returns the leaf keys of DefaultConfig with descriptions.
// They seed viper's defaults so every key can be overridden from the
// environment, and back `sightread config show`.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	entries := []Entry{
		{Key: "log_level", Value: d.LogLevel, Description: "Log level: debug, info, warn, error"},
		{Key: "server.host", Value: d.Server.Host, Description: "HTTP listen host"},
		{Key: "server.port", Value: d.Server.Port, Description: "HTTP listen port"},
		{Key: "server.env", Value: "", Description: "Set to production to restrict CORS (env: ENV)"},
		{Key: "server.allowed_origins", Value: []string{}, Description: "Allowed CORS origins in production (env: ALLOWED_ORIGINS)"},

		{Key: "ai_services.endpoint", Value: "", Description: "Azure AI services endpoint (env: AI_SERVICES_ENDPOINT)"},
		{Key: "ai_services.key", Value: "", Description: "Azure AI services key (env: AI_SERVICES_KEY)"},
		{Key: "ai_services.region", Value: "", Description: "Azure AI services region, used by speech (env: AI_SERVICES_REGION)"},

		{Key: "pipeline.vision_provider", Value: d.Pipeline.VisionProvider, Description: "Vision provider used per request"},
		{Key: "pipeline.translation_provider", Value: d.Pipeline.TranslationProvider, Description: "Translation provider used per request"},
		{Key: "pipeline.speech_provider", Value: d.Pipeline.SpeechProvider, Description: "Speech provider used by /describe"},
		{Key: "pipeline.translate", Value: d.Pipeline.Translate, Description: "Translate the summary on /image-analysis"},
		{Key: "pipeline.source_language", Value: d.Pipeline.SourceLanguage, Description: "Summary language"},
		{Key: "pipeline.target_language", Value: d.Pipeline.TargetLanguage, Description: "Translation target language"},
		{Key: "pipeline.voice", Value: d.Pipeline.Voice, Description: "Speech voice"},
	}

	providerEntries := func(kind string, cfgs map[string]ProviderCfg) {
		names := make([]string, 0, len(cfgs))
		for name := range cfgs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := cfgs[name]
			prefix := kind + "." + name
			entries = append(entries,
				Entry{Key: prefix + ".type", Value: p.Type, Description: fmt.Sprintf("%s provider type for %s", kind, name)},
				Entry{Key: prefix + ".enabled", Value: p.Enabled, Description: "Register this provider"},
			)
			if p.Voice != "" {
				entries = append(entries, Entry{Key: prefix + ".voice", Value: p.Voice, Description: "Default voice"})
			}
		}
	}
	providerEntries("vision_providers", d.VisionProviders)
	providerEntries("translation_providers", d.TranslationProviders)
	providerEntries("speech_providers", d.SpeechProviders)

	return entries
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

// Lookup returns the effective value of a key.
func (cm *Manager) Lookup(key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if !cm.v.IsSet(key) {
		return nil, fmt.Errorf("config key not set: %s", key)
	}
	return cm.v.Get(key), nil
}
