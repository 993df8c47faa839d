package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/oefquery/internal/store"
)

// Scenario defines a conformance test scenario: specs to compile,
// registrations to make and searches whose results are checked.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE spec files, compiled together.
	Specs []string `yaml:"specs"`

	// Register lists registrations, applied in order.
	Register []RegisterStep `yaml:"register"`

	// Unregister lists removals, applied after all registrations.
	Unregister []UnregisterStep `yaml:"unregister,omitempty"`

	// Searches run after registration and removal, in order.
	Searches []SearchStep `yaml:"searches"`

	// Registered optionally checks how many rows the store holds at the end.
	Registered *RegisteredCounts `yaml:"registered,omitempty"`
}

// RegisterStep registers one spec description under a public key.
type RegisterStep struct {
	// Kind is "agent" or "service". Defaults to "service".
	Kind string `yaml:"kind,omitempty"`

	// Key is the public key to register under.
	Key string `yaml:"key"`

	// Description is the spec name of the description.
	Description string `yaml:"description"`
}

// UnregisterStep removes a registration.
type UnregisterStep struct {
	// Kind is "agent" or "service". Defaults to "service".
	Kind string `yaml:"kind,omitempty"`

	// Key is the public key to remove.
	Key string `yaml:"key"`

	// Description optionally names the one service description to remove.
	// Empty removes every description of the service.
	Description string `yaml:"description,omitempty"`

	// ExpectError marks a removal that must fail because nothing is
	// registered under the key.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// SearchStep runs one query and checks the matching keys.
type SearchStep struct {
	// Kind is "agent" or "service". Defaults to "service".
	Kind string `yaml:"kind,omitempty"`

	// Query is the spec name of the query.
	Query string `yaml:"query"`

	// Expect lists the public keys the search must return, in any order.
	// An empty list expects no match.
	Expect []string `yaml:"expect"`
}

// RegisteredCounts are the expected final registration row counts.
type RegisteredCounts struct {
	Agents   *int `yaml:"agents,omitempty"`
	Services *int `yaml:"services,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Spec paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
// Spec paths are left as written and are not checked.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "search:" vs "searches:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.applyDefaults()
	return &scenario, nil
}

func (s *Scenario) applyDefaults() {
	for i := range s.Register {
		if s.Register[i].Kind == "" {
			s.Register[i].Kind = string(store.KindService)
		}
	}
	for i := range s.Unregister {
		if s.Unregister[i].Kind == "" {
			s.Unregister[i].Kind = string(store.KindService)
		}
	}
	for i := range s.Searches {
		if s.Searches[i].Kind == "" {
			s.Searches[i].Kind = string(store.KindService)
		}
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Searches) == 0 {
		return fmt.Errorf("searches list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, step := range s.Register {
		if !store.Kind(step.Kind).Valid() {
			return fmt.Errorf("register[%d]: unknown kind %q", i, step.Kind)
		}
		if step.Key == "" {
			return fmt.Errorf("register[%d]: key is required", i)
		}
		if step.Description == "" {
			return fmt.Errorf("register[%d]: description is required", i)
		}
	}

	for i, step := range s.Unregister {
		if !store.Kind(step.Kind).Valid() {
			return fmt.Errorf("unregister[%d]: unknown kind %q", i, step.Kind)
		}
		if step.Key == "" {
			return fmt.Errorf("unregister[%d]: key is required", i)
		}
		if step.Kind == string(store.KindAgent) && step.Description != "" {
			return fmt.Errorf("unregister[%d]: description applies to services only", i)
		}
	}

	for i, step := range s.Searches {
		if !store.Kind(step.Kind).Valid() {
			return fmt.Errorf("searches[%d]: unknown kind %q", i, step.Kind)
		}
		if step.Query == "" {
			return fmt.Errorf("searches[%d]: query is required", i)
		}
		if step.Expect == nil {
			return fmt.Errorf("searches[%d]: expect is required (use [] for no match)", i)
		}
	}

	if r := s.Registered; r != nil {
		if r.Agents != nil && *r.Agents < 0 {
			return fmt.Errorf("registered.agents must be non-negative")
		}
		if r.Services != nil && *r.Services < 0 {
			return fmt.Errorf("registered.services must be non-negative")
		}
	}

	return nil
}
