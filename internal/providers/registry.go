package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds references to vision, translation and speech providers.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu          sync.RWMutex
	vision      map[string]VisionProvider
	translation map[string]TranslationProvider
	speech      map[string]SpeechProvider

	// configs remembers what each provider was built from so Reload only
	// recreates providers whose settings changed.
	configs map[string]ProviderConfig
	logger  *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		vision:      make(map[string]VisionProvider),
		translation: make(map[string]TranslationProvider),
		speech:      make(map[string]SpeechProvider),
		configs:     make(map[string]ProviderConfig),
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterVision registers a vision provider by name.
func (r *Registry) RegisterVision(name string, p VisionProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vision[name] = p
	r.logger.Info("registered vision provider", "name", name)
}

// RegisterTranslation registers a translation provider by name.
func (r *Registry) RegisterTranslation(name string, p TranslationProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.translation[name] = p
	r.logger.Info("registered translation provider", "name", name)
}

// RegisterSpeech registers a speech provider by name.
func (r *Registry) RegisterSpeech(name string, p SpeechProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech[name] = p
	r.logger.Info("registered speech provider", "name", name)
}

// GetVision returns a vision provider by name.
func (r *Registry) GetVision(name string) (VisionProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.vision[name]
	if !ok {
		return nil, fmt.Errorf("vision provider not found: %s", name)
	}
	return p, nil
}

// GetTranslation returns a translation provider by name.
func (r *Registry) GetTranslation(name string) (TranslationProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.translation[name]
	if !ok {
		return nil, fmt.Errorf("translation provider not found: %s", name)
	}
	return p, nil
}

// GetSpeech returns a speech provider by name.
func (r *Registry) GetSpeech(name string) (SpeechProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.speech[name]
	if !ok {
		return nil, fmt.Errorf("speech provider not found: %s", name)
	}
	return p, nil
}

// HasVision checks if a vision provider is registered.
func (r *Registry) HasVision(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.vision[name]
	return ok
}

// HasTranslation checks if a translation provider is registered.
func (r *Registry) HasTranslation(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.translation[name]
	return ok
}

// HasSpeech checks if a speech provider is registered.
func (r *Registry) HasSpeech(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.speech[name]
	return ok
}

// ListVision returns all registered vision provider names, sorted.
func (r *Registry) ListVision() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.vision)
}

// ListTranslation returns all registered translation provider names, sorted.
func (r *Registry) ListTranslation() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.translation)
}

// ListSpeech returns all registered speech provider names, sorted.
func (r *Registry) ListSpeech() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.speech)
}

func sortedKeys[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegistryConfig defines the providers to instantiate from config.
// This mirrors the config.Config structure for provider setup.
type RegistryConfig struct {
	Vision      map[string]ProviderConfig
	Translation map[string]ProviderConfig
	Speech      map[string]ProviderConfig
}

// ProviderConfig matches config.ProviderCfg with resolved credentials.
type ProviderConfig struct {
	Type            string // "azure-vision", "google-translate", "openai-tts", ...
	Endpoint        string
	APIKey          string
	Region          string
	Model           string
	Voice           string
	Format          string
	CredentialsFile string
	Timeout         time.Duration
	Enabled         bool
}

// usable reports whether the provider should be registered.
func (c ProviderConfig) usable() bool {
	return c.Enabled && (c.APIKey != "" || c.CredentialsFile != "")
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with credentials will be registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reloadKind(r, "vision", r.vision, cfg.Vision, createVisionProvider)
	reloadKind(r, "translation", r.translation, cfg.Translation, createTranslationProvider)
	reloadKind(r, "speech", r.speech, cfg.Speech, createSpeechProvider)
}

// reloadKind reconciles one provider map against its config. Must be called
// with the registry lock held.
func reloadKind[T any](r *Registry, kind string, current map[string]T, want map[string]ProviderConfig, create func(ProviderConfig) (T, error)) {
	keep := make(map[string]bool)

	for name, provCfg := range want {
		if !provCfg.usable() {
			continue
		}
		keep[name] = true

		key := kind + "/" + name
		_, hasExisting := current[name]
		if hasExisting && r.configs[key] == provCfg {
			continue
		}

		p, err := create(provCfg)
		if err != nil {
			r.logger.Error("failed to create provider", "kind", kind, "name", name, "type", provCfg.Type, "error", err)
			if !hasExisting {
				keep[name] = false
			}
			continue
		}
		if hasExisting {
			closeProvider(current[name])
			r.logger.Info("updated "+kind+" provider", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Info("registered "+kind+" provider", "name", name, "type", provCfg.Type)
		}
		current[name] = p
		r.configs[key] = provCfg
	}

	// Remove providers that are no longer configured
	for name, p := range current {
		if !keep[name] {
			closeProvider(p)
			delete(current, name)
			delete(r.configs, kind+"/"+name)
			r.logger.Info("unregistered "+kind+" provider", "name", name)
		}
	}
}

func closeProvider(p any) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}

// createVisionProvider creates a vision provider based on provider type.
func createVisionProvider(cfg ProviderConfig) (VisionProvider, error) {
	switch cfg.Type {
	case AzureVisionName:
		return NewAzureVisionClient(AzureVisionConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.Timeout,
		}), nil
	case GoogleVisionName:
		return NewGoogleVisionClient(context.Background(), GoogleConfig{
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown vision provider type: %q", cfg.Type)
	}
}

// createTranslationProvider creates a translation provider based on provider type.
func createTranslationProvider(cfg ProviderConfig) (TranslationProvider, error) {
	switch cfg.Type {
	case AzureTranslatorName:
		return NewAzureTranslatorClient(AzureTranslatorConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Region:   cfg.Region,
			Timeout:  cfg.Timeout,
		}), nil
	case GoogleTranslateName:
		return NewGoogleTranslateClient(context.Background(), GoogleConfig{
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown translation provider type: %q", cfg.Type)
	}
}

// createSpeechProvider creates a speech provider based on provider type.
func createSpeechProvider(cfg ProviderConfig) (SpeechProvider, error) {
	switch cfg.Type {
	case AzureSpeechName:
		return NewAzureSpeechClient(AzureSpeechConfig{
			APIKey:  cfg.APIKey,
			Region:  cfg.Region,
			Voice:   cfg.Voice,
			Format:  cfg.Format,
			Timeout: cfg.Timeout,
		}), nil
	case OpenAITTSName:
		return NewOpenAITTSClient(OpenAITTSConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Voice:   cfg.Voice,
			Format:  cfg.Format,
			Timeout: cfg.Timeout,
			BaseURL: cfg.Endpoint,
		}), nil
	case GoogleTTSName:
		return NewGoogleTTSClient(context.Background(), GoogleTTSConfig{
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
			Voice:           cfg.Voice,
		})
	default:
		return nil, fmt.Errorf("unknown speech provider type: %q", cfg.Type)
	}
}
