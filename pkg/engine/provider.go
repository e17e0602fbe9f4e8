package engine

import (
	"fmt"
	"sync"

	"github.com/germanamz/physbot/pkg/modeladapter"
	"github.com/germanamz/physbot/pkg/providers/gemini"
	"github.com/germanamz/physbot/pkg/providers/openai"
)

// Built-in provider kinds.
const (
	KindGeminiCompat = "gemini-compat" // Gemini through its OpenAI-compatible endpoint.
	KindGemini       = "gemini"        // Native Gemini generateContent.
	KindOpenAI       = "openai"        // OpenAI Chat Completions.
)

var defaultModels = map[string]string{
	KindGeminiCompat: "gemini-2.0-flash",
	KindGemini:       "gemini-2.0-flash",
	KindOpenAI:       "gpt-4o-mini",
}

// ProviderFactory creates a Completer from a ProviderConfig.
type ProviderFactory func(cfg ProviderConfig) (modeladapter.Completer, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories[KindGeminiCompat] = newGeminiCompat
		factories[KindGemini] = newGemini
		factories[KindOpenAI] = newOpenAI
	})
}

// RegisterProvider registers a custom provider factory under the given kind.
// It can be called before New to extend the engine with additional providers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// ProviderKnown reports whether kind has a registered factory.
func ProviderKnown(kind string) bool {
	_, ok := getFactory(kind)
	return ok
}

func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newGeminiCompat(cfg ProviderConfig) (modeladapter.Completer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openai.DefaultGeminiBaseURL
	}

	return newOpenAIAdapter(baseURL, cfg), nil
}

func newOpenAI(cfg ProviderConfig) (modeladapter.Completer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openai.DefaultBaseURL
	}

	return newOpenAIAdapter(baseURL, cfg), nil
}

func newOpenAIAdapter(baseURL string, cfg ProviderConfig) *openai.Adapter {
	a := openai.New(baseURL, cfg.APIKey, cfg.Model, nil)
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens

	return a
}

func newGemini(cfg ProviderConfig) (modeladapter.Completer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = gemini.DefaultBaseURL
	}

	a := gemini.New(baseURL, cfg.APIKey, cfg.Model)
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens

	return a, nil
}

// buildCompleter creates a Completer from a ProviderConfig using the registered
// factory for its Kind.
func buildCompleter(cfg ProviderConfig) (modeladapter.Completer, error) {
	factory, ok := getFactory(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("engine: unknown provider kind %q", cfg.Kind)
	}

	c, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: provider %q: %w", cfg.Kind, err)
	}

	return c, nil
}
