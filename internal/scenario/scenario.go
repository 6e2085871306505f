package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storecheck/internal/catalog"
)

// Scenario is a named group of variations sharing one step plan.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Variations are run in file order, each against a fresh toggle.
	Variations []Variation `yaml:"variations"`
}

// Variation is one data set of a scenario.
type Variation struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Products are created in order and added to the cart in that order.
	Products []catalog.ProductSpec `yaml:"products" json:"products,omitempty"`

	// Cart is the declarative cart spec. The created products are injected
	// under items.products before the cart fixture is built.
	Cart map[string]any `yaml:"cart,omitempty" json:"cart,omitempty"`

	// ConfigData names the configuration variant to apply. Empty means none.
	ConfigData string `yaml:"config_data,omitempty" json:"config_data,omitempty"`

	// FlushCache flushes the storefront cache after the variant is applied.
	FlushCache bool `yaml:"flush_cache,omitempty" json:"flush_cache,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// Assertion checks the outcome of a variation.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type" json:"type"`

	// SKUs is the expected product order (cart_products).
	SKUs []string `yaml:"skus,omitempty" json:"skus,omitempty"`

	// Count is the expected number of units in the cart (cart_count).
	Count int `yaml:"count,omitempty" json:"count,omitempty"`

	// Path and Value are the expected configuration value (config_value).
	// An empty Value with Absent set expects the path to have no value.
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Value  string `yaml:"value,omitempty" json:"value,omitempty"`
	Absent bool   `yaml:"absent,omitempty" json:"absent,omitempty"`

	// Scheme is the expected frontend URL scheme (env_scheme).
	Scheme string `yaml:"scheme,omitempty" json:"scheme,omitempty"`

	// Steps is the expected step order (trace_order).
	Steps []string `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Assertion type constants.
const (
	AssertCartProducts = "cart_products"
	AssertCartCount    = "cart_count"
	AssertConfigValue  = "config_value"
	AssertEnvScheme    = "env_scheme"
	AssertTraceOrder   = "trace_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario checks required fields, then each variation against the
// CUE schema.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Variations) == 0 {
		return fmt.Errorf("variations list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Variations))
	for i, v := range s.Variations {
		if v.Name == "" {
			return fmt.Errorf("variations[%d]: name is required", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("variations[%d]: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = true

		if err := ValidateVariation(v); err != nil {
			return fmt.Errorf("variation %q: %w", v.Name, err)
		}
		for j, a := range v.Assertions {
			if err := validateAssertion(a); err != nil {
				return fmt.Errorf("variation %q: assertions[%d]: %w", v.Name, j, err)
			}
		}
	}
	return nil
}

// validateAssertion checks the fields each assertion type needs. The CUE
// schema covers value shapes; this covers which fields go together.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertCartProducts:
		// An empty list asserts an empty cart.
	case AssertCartCount:
		if a.Count < 0 {
			return fmt.Errorf("cart_count: count must be >= 0")
		}
	case AssertConfigValue:
		if a.Path == "" {
			return fmt.Errorf("config_value: path is required")
		}
		if a.Absent && a.Value != "" {
			return fmt.Errorf("config_value: value and absent are exclusive")
		}
	case AssertEnvScheme:
		if a.Scheme == "" {
			return fmt.Errorf("env_scheme: scheme is required")
		}
	case AssertTraceOrder:
		if len(a.Steps) == 0 {
			return fmt.Errorf("trace_order: steps list is required")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
