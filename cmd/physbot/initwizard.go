package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/physbot/pkg/engine"
)

// wizardConfig holds the raw form answers. Numeric fields stay strings so
// huh inputs can bind to them.
type wizardConfig struct {
	Kind        string
	APIKey      string //nolint:gosec // env var reference, not a secret
	Model       string
	BaseURL     string
	Temperature string
	MaxTokens   string
	Timeout     string
}

type providerDefault struct {
	APIKey string //nolint:gosec // env var reference template, not a secret
	Model  string
}

//nolint:gosec // env var reference templates, not hardcoded secrets
var providerDefaults = map[string]providerDefault{
	engine.KindGeminiCompat: {APIKey: "${GEMINI_API_KEY}", Model: "gemini-2.0-flash"},
	engine.KindGemini:       {APIKey: "${GEMINI_API_KEY}", Model: "gemini-2.0-flash"},
	engine.KindOpenAI:       {APIKey: "${OPENAI_API_KEY}", Model: "gpt-4o-mini"},
}

func runInit(out string) error {
	if _, err := os.Stat(out); err == nil {
		var overwrite bool
		if err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title(fmt.Sprintf("%s already exists. Overwrite?", out)).Value(&overwrite),
		)).Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Aborted.")
			return nil
		}
	}

	w, err := runWizard()
	if err != nil {
		return err
	}

	data, err := marshalWizardConfig(w)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", out)
	return nil
}

func runWizard() (wizardConfig, error) {
	w := wizardConfig{Kind: engine.KindGeminiCompat}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Provider kind").
			Options(
				huh.NewOption("Gemini (OpenAI-compatible endpoint)", engine.KindGeminiCompat),
				huh.NewOption("Gemini (native API)", engine.KindGemini),
				huh.NewOption("OpenAI", engine.KindOpenAI),
			).
			Value(&w.Kind),
	)).Run(); err != nil {
		return w, err
	}

	defaults := providerDefaults[w.Kind]
	w.APIKey = defaults.APIKey
	w.Model = defaults.Model

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("API key env var").Value(&w.APIKey),
		huh.NewInput().Title("Model").Value(&w.Model),
		huh.NewInput().Title("Base URL (empty = provider default)").Value(&w.BaseURL),
		huh.NewInput().Title("Temperature (empty = model default)").Value(&w.Temperature).Validate(validateOptionalNonNegativeFloat),
		huh.NewInput().Title("Max output tokens (empty = model default)").Value(&w.MaxTokens).Validate(validateOptionalNonNegativeInt),
		huh.NewInput().Title("Request timeout (empty = none, e.g. 30s)").Value(&w.Timeout).Validate(validateOptionalDuration),
	)).Run(); err != nil {
		return w, err
	}

	return w, nil
}

// buildConfig converts wizard answers into an engine.Config. Agent and gate
// settings keep their defaults, so they are left out of the written file.
func buildConfig(w wizardConfig) (engine.Config, error) {
	cfg := engine.Config{
		Provider: engine.ProviderConfig{
			Kind:    w.Kind,
			BaseURL: w.BaseURL,
			APIKey:  w.APIKey,
			Model:   w.Model,
		},
		Agent: engine.AgentConfig{Timeout: w.Timeout},
	}

	if w.Kind == "" {
		return cfg, errors.New("provider kind is required")
	}

	if w.Temperature != "" {
		t, err := strconv.ParseFloat(w.Temperature, 64)
		if err != nil {
			return cfg, fmt.Errorf("temperature: %w", err)
		}
		cfg.Provider.Temperature = t
	}

	if w.MaxTokens != "" {
		n, err := strconv.Atoi(w.MaxTokens)
		if err != nil {
			return cfg, fmt.Errorf("max tokens: %w", err)
		}
		cfg.Provider.MaxTokens = n
	}

	return cfg, nil
}

func marshalWizardConfig(w wizardConfig) ([]byte, error) {
	cfg, err := buildConfig(w)
	if err != nil {
		return nil, err
	}
	return cfg.Marshal()
}

func validateOptionalNonNegativeInt(s string) error {
	if s == "" {
		return nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}

	return nil
}

func validateOptionalNonNegativeFloat(s string) error {
	if s == "" {
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("must be a non-negative number")
	}

	return nil
}

func validateOptionalDuration(s string) error {
	if s == "" {
		return nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fmt.Errorf("must be a positive duration (e.g. 30s, 1m)")
	}

	return nil
}
