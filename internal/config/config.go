// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/types"
	"github.com/jonathan/brdocs/internal/validation"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Run
	Level         string `json:"level,omitempty" yaml:"level,omitempty"`                   // quick, standard or comprehensive
	MaxIterations int    `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"` // Per-stage validate/correct budget
	AutoCorrect   *bool  `json:"auto_correct,omitempty" yaml:"auto_correct,omitempty"`     // Ask the LLM to fix correctable issues
	LLMChecks     *bool  `json:"llm_checks,omitempty" yaml:"llm_checks,omitempty"`         // Delegated quality checks at the comprehensive level

	// LLM
	Provider string            `json:"provider,omitempty" yaml:"provider,omitempty"` // gemini, openai or anthropic
	Models   map[string]string `json:"models,omitempty" yaml:"models,omitempty"`     // Tier → model overrides
	BaseURL  string            `json:"base_url,omitempty" yaml:"base_url,omitempty"` // OpenAI-compatible endpoint
	APIKey   string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Temperature is a pointer so an explicit 0 is kept.
	Temperature     *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`

	// Persistence
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	Policy PolicyConfig `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// PolicyConfig overrides the validation policy constants. Zero values keep the defaults.
type PolicyConfig struct {
	Penalties        map[string]float64 `json:"penalties,omitempty" yaml:"penalties,omitempty"` // Severity → penalty
	AmountTolerance  string             `json:"amount_tolerance,omitempty" yaml:"amount_tolerance,omitempty"`
	SalaryThreshold  string             `json:"salary_threshold,omitempty" yaml:"salary_threshold,omitempty"`
	StageWeights     map[string]float64 `json:"stage_weights,omitempty" yaml:"stage_weights,omitempty"`
	MinSectionChars  int                `json:"min_section_chars,omitempty" yaml:"min_section_chars,omitempty"`
	ForbiddenPhrases []string           `json:"forbidden_phrases,omitempty" yaml:"forbidden_phrases,omitempty"` // empty list disables the check
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Level != "" {
		if _, err := validation.ParseLevel(c.Level); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if c.Provider != "" {
		if _, err := llm.ParseProvider(c.Provider); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	for tier := range c.Models {
		switch llm.ModelTier(tier) {
		case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
	}

	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 1) {
		return fmt.Errorf("config error: 'temperature' must be between 0 and 1")
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("config error: 'max_output_tokens' must be non-negative")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("config error: 'max_iterations' must be non-negative")
	}
	if c.Policy.MinSectionChars < 0 {
		return fmt.Errorf("config error: 'min_section_chars' must be non-negative")
	}

	for sev, penalty := range c.Policy.Penalties {
		if types.ParseSeverity(sev) != types.Severity(strings.ToUpper(sev)) {
			return fmt.Errorf("config error: unknown severity %q in penalties", sev)
		}
		if penalty < 0 || penalty > 1 {
			return fmt.Errorf("config error: penalty for %s must be between 0 and 1", sev)
		}
	}
	for stage, weight := range c.Policy.StageWeights {
		if weight < 0 {
			return fmt.Errorf("config error: weight for stage %s must be non-negative", stage)
		}
	}
	for name, value := range map[string]string{
		"amount_tolerance": c.Policy.AmountTolerance,
		"salary_threshold": c.Policy.SalaryThreshold,
	} {
		if value == "" {
			continue
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("config error: '%s' is not a decimal: %w", name, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Level == "" {
		result.Level = defaults.Level
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.MaxIterations == 0 {
		result.MaxIterations = defaults.MaxIterations
	}
	if result.MaxOutputTokens == 0 {
		result.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}

	if result.AutoCorrect == nil {
		result.AutoCorrect = defaults.AutoCorrect
	}
	if result.LLMChecks == nil {
		result.LLMChecks = defaults.LLMChecks
	}
	if len(defaults.Models) > 0 {
		models := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			models[k] = v
		}
		for k, v := range result.Models {
			models[k] = v
		}
		result.Models = models
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// AutoCorrectEnabled reports whether corrections are requested; unset means enabled.
func (c *Config) AutoCorrectEnabled() bool {
	return c.AutoCorrect == nil || *c.AutoCorrect
}

// LLMChecksEnabled reports whether delegated quality checks may run; unset means enabled.
func (c *Config) LLMChecksEnabled() bool {
	return c.LLMChecks == nil || *c.LLMChecks
}

// LLMConfig builds the provider configuration with the model overrides applied.
func (c *Config) LLMConfig() (*llm.Config, error) {
	provider, err := llm.ParseProvider(c.Provider)
	if err != nil {
		return nil, err
	}
	cfg := llm.DefaultConfigFor(provider)
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if c.Temperature != nil {
		cfg.Temperature = *c.Temperature
	}
	if c.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = c.MaxOutputTokens
	}
	return cfg, nil
}

// ValidationPolicy returns the validation policy with the configured overrides.
// Call Validate first; unparsable decimals are ignored here.
func (c *Config) ValidationPolicy() validation.Policy {
	p := validation.DefaultPolicy()

	if len(c.Policy.Penalties) > 0 {
		penalties := make(map[types.Severity]float64, len(p.Penalties))
		for k, v := range p.Penalties {
			penalties[k] = v
		}
		for sev, v := range c.Policy.Penalties {
			penalties[types.ParseSeverity(sev)] = v
		}
		p.Penalties = penalties
	}
	if len(c.Policy.StageWeights) > 0 {
		weights := make(map[string]float64, len(p.StageWeights))
		for k, v := range p.StageWeights {
			weights[k] = v
		}
		for stage, v := range c.Policy.StageWeights {
			weights[stage] = v
		}
		p.StageWeights = weights
	}
	if d, err := decimal.NewFromString(c.Policy.AmountTolerance); err == nil {
		p.AmountTolerance = decimal.NewNullDecimal(d)
	}
	if d, err := decimal.NewFromString(c.Policy.SalaryThreshold); err == nil {
		p.SalaryThreshold = decimal.NewNullDecimal(d)
	}
	if c.Policy.MinSectionChars > 0 {
		p.MinSectionChars = c.Policy.MinSectionChars
	}
	if c.MaxIterations > 0 {
		p.MaxIterations = c.MaxIterations
	}
	if c.Policy.ForbiddenPhrases != nil {
		p.ForbiddenPhrases = append([]string{}, c.Policy.ForbiddenPhrases...)
	}
	return p
}
