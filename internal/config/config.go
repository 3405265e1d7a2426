package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Prompt struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

type Model struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type Policy struct {
	Name           string   `yaml:"name"`
	AllowedImports []string `yaml:"allowed_imports"`
	BlockedIdents  []string `yaml:"blocked_idents"`
	MaxCodeBytes   int      `yaml:"max_code_bytes"`
}

type Config struct {
	Prompts  map[string]Prompt
	Models   map[string]Model
	Policies map[string]Policy
}

func LoadFromDir(base string) (*Config, error) {
	cfg := &Config{
		Prompts:  make(map[string]Prompt),
		Models:   make(map[string]Model),
		Policies: make(map[string]Policy),
	}

	if err := loadPromptsDir(filepath.Join(base, "prompts"), cfg); err != nil {
		return nil, err
	}
	if err := loadModelsDir(filepath.Join(base, "models"), cfg); err != nil {
		return nil, err
	}
	if err := loadPoliciesDir(filepath.Join(base, "policies"), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Prompt returns the named prompt template or an error when it is missing.
func (c *Config) Prompt(name string) (Prompt, error) {
	p, ok := c.Prompts[name]
	if !ok {
		return Prompt{}, fmt.Errorf("prompt %q not defined", name)
	}
	return p, nil
}

// Policy returns the named sandbox policy or an error when it is missing.
func (c *Config) Policy(name string) (Policy, error) {
	p, ok := c.Policies[name]
	if !ok {
		return Policy{}, fmt.Errorf("policy %q not defined", name)
	}
	return p, nil
}

func loadPromptsDir(dir string, cfg *Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading prompts dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw struct {
			Prompts []Prompt `yaml:"prompts"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, p := range raw.Prompts {
			cfg.Prompts[p.Name] = p
		}
	}
	return nil
}

func loadModelsDir(dir string, cfg *Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading models dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw struct {
			Models []Model `yaml:"models"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, m := range raw.Models {
			cfg.Models[m.Name] = m
		}
	}
	return nil
}

func loadPoliciesDir(dir string, cfg *Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading policies dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw struct {
			Policies []Policy `yaml:"policies"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, p := range raw.Policies {
			cfg.Policies[p.Name] = p
		}
	}
	return nil
}
