package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/germanamz/physbot/pkg/gate"
	"gopkg.in/yaml.v3"
)

// DefaultRefusal is returned for questions that fail the keyword gate.
const DefaultRefusal = "Sorry, I can only help with physics-related questions."

// DefaultAgentName names the agent in logs and as the system message sender.
const DefaultAgentName = "Physics Expert Agent"

// DefaultInstructions is the system instruction sent with every query. It
// repeats the domain restriction so the model refuses off-topic questions
// that slipped through the keyword gate.
const DefaultInstructions = `You are a helpful physics tutor. Only answer if the question is about physics concepts like motion, forces, energy, electromagnetism, quantum physics, thermodynamics, optics, etc.
If a question is unrelated to physics, respond: 'Sorry, I can only help with physics-related questions.'`

// ErrMissingAPIKey is returned by Validate when the provider has no credential.
var ErrMissingAPIKey = errors.New("engine: config: api key is required")

// defaultConfigYAML is used when no config file is given. The credential comes
// from the environment.
const defaultConfigYAML = `
provider:
  kind: gemini-compat
  api_key: ${GEMINI_API_KEY}
  model: gemini-2.0-flash
`

// Config is the top-level configuration. It is loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Agent    AgentConfig    `yaml:"agent,omitempty"`
	Gate     GateConfig     `yaml:"gate,omitempty"`
}

// ProviderConfig describes the language-model endpoint.
type ProviderConfig struct {
	Kind        string  `yaml:"kind"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKey      string  `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// AgentConfig holds the agent's identity and run settings.
type AgentConfig struct {
	Name         string `yaml:"name,omitempty"`
	Instructions string `yaml:"instructions,omitempty"`
	Timeout      string `yaml:"timeout,omitempty"` // Duration string; empty means no deadline.
}

// GateConfig holds the domain gate settings.
type GateConfig struct {
	Keywords []string `yaml:"keywords,omitempty"`
	Refusal  string   `yaml:"refusal,omitempty"`
}

// LoadConfig reads a YAML file and returns a Config with defaults applied.
// An empty path loads the built-in default config. Environment variables
// referenced as ${VAR} or $VAR are expanded before parsing, so API keys can
// stay in the environment (e.g. loaded from a .env file).
func LoadConfig(path string) (Config, error) {
	data := []byte(defaultConfigYAML)

	if path != "" {
		var err error
		data, err = os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
		if err != nil {
			return Config{}, fmt.Errorf("engine: load config: %w", err)
		}
	}

	return ParseConfig(data)
}

// ParseConfig expands environment references in data, parses it as YAML and
// applies defaults.
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg.withDefaults(), nil
}

// withDefaults fills every empty optional field.
func (c Config) withDefaults() Config {
	if c.Provider.Kind == "" {
		c.Provider.Kind = KindGeminiCompat
	}
	if c.Provider.Model == "" {
		c.Provider.Model = defaultModels[c.Provider.Kind]
	}
	if c.Agent.Name == "" {
		c.Agent.Name = DefaultAgentName
	}
	if c.Agent.Instructions == "" {
		c.Agent.Instructions = DefaultInstructions
	}
	if len(c.Gate.Keywords) == 0 {
		c.Gate.Keywords = gate.Physics().Terms()
	}
	if c.Gate.Refusal == "" {
		c.Gate.Refusal = DefaultRefusal
	}
	return c
}

// Validate checks that the configuration can serve requests. A missing
// credential is reported as ErrMissingAPIKey.
func (c Config) Validate() error {
	p := c.Provider

	if p.Kind == "" {
		return fmt.Errorf("engine: config: provider kind is required")
	}
	if !ProviderKnown(p.Kind) {
		return fmt.Errorf("engine: config: unknown provider kind %q", p.Kind)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("%w (provider kind %q)", ErrMissingAPIKey, p.Kind)
	}
	if p.Model == "" {
		return fmt.Errorf("engine: config: provider %q: model is required", p.Kind)
	}
	if p.Temperature < 0 {
		return fmt.Errorf("engine: config: temperature must not be negative")
	}
	if p.MaxTokens < 0 {
		return fmt.Errorf("engine: config: max_tokens must not be negative")
	}

	if _, err := c.Agent.timeout(); err != nil {
		return err
	}

	if gate.NewKeywordSet(c.Gate.Keywords...).Len() == 0 {
		return fmt.Errorf("engine: config: gate needs at least one keyword")
	}

	return nil
}

// timeout parses the configured agent timeout. Zero means no deadline.
func (a AgentConfig) timeout() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("engine: config: invalid agent timeout %q: %w", a.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("engine: config: agent timeout must be positive, got %q", a.Timeout)
	}

	return d, nil
}

// Marshal encodes the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("engine: marshal config: %w", err)
	}
	return data, nil
}
