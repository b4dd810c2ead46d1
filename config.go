package casim

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// NamedStrength is a pre-classified custom authentication strength handed
// over by the directory collaborator.
type NamedStrength struct {
	ID          string       `json:"id" yaml:"id"`
	DisplayName string       `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Tier        StrengthTier `json:"tier" yaml:"tier"`
}

// Config is the complete simulator configuration: the policy set, the
// classified custom strengths, sweep personas and sweep bounds.
type Config struct {
	Version   uint16                  `json:"version" yaml:"version"`
	Policies  []*Policy               `json:"policies" yaml:"policies"`
	Strengths []NamedStrength         `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Personas  []Persona               `json:"personas,omitempty" yaml:"personas,omitempty"`
	Sweep     SweepConfig             `json:"sweep" yaml:"sweep"`
	Resolver  DirectoryResolverConfig `json:"resolver,omitempty" yaml:"resolver,omitempty"`
}

// ConfigLoader loads configuration from the supported formats.
type ConfigLoader struct{}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

func (l *ConfigLoader) LoadYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) LoadJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAML exports config to YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ToJSON exports config to JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Validate checks the structural invariants a loaded configuration must hold
// before it can be applied.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Policies))
	for _, p := range c.Policies {
		if p.ID == "" {
			return fmt.Errorf("policy with empty id (display name %q)", p.DisplayName)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate policy id: %s", p.ID)
		}
		seen[p.ID] = true
		switch p.State {
		case StateEnabled, StateDisabled, StateReportOnly:
		default:
			return fmt.Errorf("policy %s: invalid state %q", p.ID, p.State)
		}
		if p.Grant != nil {
			switch p.Grant.Operator {
			case OperatorAND, OperatorOR, "":
			default:
				return fmt.Errorf("policy %s: invalid grant operator %q", p.ID, p.Grant.Operator)
			}
			if s := p.Grant.Strength; s != nil && (s.Tier < TierUnclassified || s.Tier > TierPhishingResistantMFA) {
				return fmt.Errorf("policy %s: strength tier out of range: %d", p.ID, s.Tier)
			}
		}
	}
	for _, s := range c.Strengths {
		if s.ID == "" {
			return fmt.Errorf("strength with empty id")
		}
		if s.Tier < TierUnclassified || s.Tier > TierPhishingResistantMFA {
			return fmt.Errorf("strength %s: tier out of range: %d", s.ID, s.Tier)
		}
	}
	if n := c.Sweep.Dimensions.Count(); c.Sweep.MaxCombinations > 0 && n > c.Sweep.MaxCombinations {
		return fmt.Errorf("sweep dimensions produce %d combinations, cap is %d", n, c.Sweep.MaxCombinations)
	}
	return nil
}

// ApplyConfig pushes a configuration into the engine: policies are created
// or updated in the policy store and named strengths registered when the
// engine carries a writable strength resolver.
func (e *Engine) ApplyConfig(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, p := range cfg.Policies {
		if _, err := e.policyStore.GetPolicy(ctx, p.ID); err != nil {
			if err := e.policyStore.CreatePolicy(ctx, p); err != nil {
				return fmt.Errorf("create policy %s: %w", p.ID, err)
			}
		} else {
			if err := e.policyStore.UpdatePolicy(ctx, p); err != nil {
				return fmt.Errorf("update policy %s: %w", p.ID, err)
			}
		}
	}

	if reg, ok := e.strengths.(*MemoryStrengthResolver); ok {
		for _, s := range cfg.Strengths {
			reg.Register(s.ID, s.Tier)
		}
	}

	e.logger.Info("config applied",
		"policies", len(cfg.Policies),
		"strengths", len(cfg.Strengths),
		"personas", len(cfg.Personas))
	return nil
}
