// Package variant applies named, reversible storefront configuration
// changes for the duration of one scenario run.
//
// A Toggle snapshots every configuration path before writing it and
// restores the snapshot on Revert, so the storefront ends up exactly as it
// was found regardless of its prior state.
package variant

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storecheck/internal/config"
)

// EnableHTTPSFrontendAdmin serves both storefront and admin over https.
const EnableHTTPSFrontendAdmin = "enable_https_frontend_admin"

// Configuration paths touched by the built-in variants.
const (
	PathSecureUseInFrontend  = "web/secure/use_in_frontend"
	PathSecureUseInAdminhtml = "web/secure/use_in_adminhtml"
	PathSecureBaseURL        = "web/secure/base_url"
	PathSecureBaseLinkURL    = "web/secure/base_link_url"
)

// Placeholders expanded in field values at apply time.
const (
	PlaceholderBaseURL       = "{{base_url}}"
	PlaceholderSecureBaseURL = "{{secure_base_url}}"
)

// ErrUnknownVariant is returned when a variant name is not registered.
var ErrUnknownVariant = errors.New("unknown config variant")

// Field is a single configuration value written by a variant.
type Field struct {
	Path  string `yaml:"path"`
	Value string `yaml:"value"`
}

// Variant is a named configuration change.
type Variant struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Fields      []Field `yaml:"fields"`

	// SecureBaseURLs makes the run address the storefront over https.
	SecureBaseURLs bool `yaml:"secure_base_urls,omitempty"`
}

// Expand resolves placeholders in the variant's field values.
func (v Variant) Expand(env config.Environment) ([]Field, error) {
	secure, err := config.RewriteScheme(env.FrontendURL, "https")
	if err != nil {
		return nil, err
	}
	r := strings.NewReplacer(
		PlaceholderSecureBaseURL, secure,
		PlaceholderBaseURL, env.FrontendURL,
	)
	out := make([]Field, len(v.Fields))
	for i, f := range v.Fields {
		out[i] = Field{Path: f.Path, Value: r.Replace(f.Value)}
	}
	return out, nil
}

// Registry holds the variants a scenario may request by name.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]Variant
}

// NewRegistry returns a registry with the built-in variants.
func NewRegistry() *Registry {
	r := &Registry{variants: make(map[string]Variant)}
	r.variants[EnableHTTPSFrontendAdmin] = Variant{
		Name:        EnableHTTPSFrontendAdmin,
		Description: "Use secure URLs on storefront and admin",
		Fields: []Field{
			{Path: PathSecureUseInFrontend, Value: "Yes"},
			{Path: PathSecureUseInAdminhtml, Value: "Yes"},
			{Path: PathSecureBaseURL, Value: PlaceholderSecureBaseURL},
			{Path: PathSecureBaseLinkURL, Value: PlaceholderSecureBaseURL},
		},
		SecureBaseURLs: true,
	}
	return r
}

// Register adds a variant. Names must be unique.
func (r *Registry) Register(v Variant) error {
	if v.Name == "" {
		return fmt.Errorf("variant name is required")
	}
	if len(v.Fields) == 0 {
		return fmt.Errorf("variant %q: at least one field is required", v.Name)
	}
	for i, f := range v.Fields {
		if f.Path == "" {
			return fmt.Errorf("variant %q: fields[%d]: path is required", v.Name, i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.variants[v.Name]; exists {
		return fmt.Errorf("variant %q already registered", v.Name)
	}
	r.variants[v.Name] = v
	return nil
}

// Lookup returns the named variant.
func (r *Registry) Lookup(name string) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// Variants returns all registered variants sorted by name.
func (r *Registry) Variants() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Variant, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadFile registers the variants listed in a YAML file:
//
//	variants:
//	  - name: enable_guest_checkout
//	    fields:
//	      - path: checkout/options/guest_checkout
//	        value: "Yes"
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read variants file: %w", err)
	}

	var doc struct {
		Variants []Variant `yaml:"variants"`
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse variants file: %w", err)
	}

	for _, v := range doc.Variants {
		if err := r.Register(v); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
