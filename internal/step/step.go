// Package step defines scenario steps and the registry that resolves step
// kinds to constructors.
//
// A step is built from its kind and parameters, then run against a shared
// Context. Whatever the step returns is merged into the Context so later
// steps can read it.
package step

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/variant"
)

// Kind tags a step type in scenario definitions.
type Kind string

// Params are the declared inputs of one step invocation.
type Params map[string]any

// Output is what a step hands to the steps after it.
type Output map[string]any

// Step is one executable unit of scenario behavior.
type Step interface {
	Run(ctx context.Context, sc *Context) (Output, error)
}

// Func adapts a function to Step.
type Func func(ctx context.Context, sc *Context) (Output, error)

// Run implements Step.
func (f Func) Run(ctx context.Context, sc *Context) (Output, error) {
	return f(ctx, sc)
}

// Deps are the collaborators available to step constructors.
type Deps struct {
	Catalog    catalog.Catalog
	Storefront catalog.Storefront
	Logger     *slog.Logger
}

// Constructor builds a step from its parameters.
type Constructor func(params Params, deps Deps) (Step, error)

// Errors returned while resolving or building steps.
var (
	ErrUnknownStep  = errors.New("unknown step kind")
	ErrMissingInput = errors.New("missing step input")
)

// Context is the mutable state shared by the steps of one run.
type Context struct {
	// Env is the run's storefront environment. Steps may replace it.
	Env config.Environment

	// Toggle applies and reverts the run's configuration variant.
	Toggle *variant.Toggle

	values map[string]any
}

// NewContext creates an empty run context.
func NewContext(env config.Environment, toggle *variant.Toggle) *Context {
	return &Context{Env: env, Toggle: toggle, values: make(map[string]any)}
}

// Value returns a previously merged output value.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Merge stores every key of out, replacing earlier values.
func (c *Context) Merge(out Output) {
	for k, v := range out {
		c.values[k] = v
	}
}

// Values returns a shallow copy of all merged outputs.
func (c *Context) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Products returns the product list produced by create_products.
func (c *Context) Products() ([]catalog.Product, error) {
	v, ok := c.values[OutputProducts]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, OutputProducts)
	}
	products, ok := v.([]catalog.Product)
	if !ok {
		return nil, fmt.Errorf("%s has type %T, want []catalog.Product", OutputProducts, v)
	}
	return products, nil
}

// Registry maps step kinds to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[Kind]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[Kind]Constructor)}
}

// Register adds a constructor. Kinds must be unique.
func (r *Registry) Register(kind Kind, ctor Constructor) error {
	if kind == "" {
		return fmt.Errorf("step kind is required")
	}
	if ctor == nil {
		return fmt.Errorf("step %q: constructor is nil", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[kind]; exists {
		return fmt.Errorf("step %q already registered", kind)
	}
	r.ctors[kind] = ctor
	return nil
}

// Build resolves kind and constructs the step.
func (r *Registry) Build(kind Kind, params Params, deps Deps) (Step, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, kind)
	}
	if params == nil {
		params = Params{}
	}
	return ctor(params, deps)
}

// Kinds returns registered kinds sorted by name.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.ctors))
	for k := range r.ctors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Decode reads params[key] into a T. Values that are already a T are used
// as is; generic values (as decoded from YAML) are converted through a YAML
// round trip. ok is false when the key is absent.
func Decode[T any](params Params, key string) (value T, ok bool, err error) {
	raw, present := params[key]
	if !present || raw == nil {
		return value, false, nil
	}
	if typed, isT := raw.(T); isT {
		return typed, true, nil
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return value, true, fmt.Errorf("param %q: %w", key, err)
	}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return value, true, fmt.Errorf("param %q: %w", key, err)
	}
	return value, true, nil
}
