// Package fixture builds named test-data objects from step outputs.
//
// Building is pure: a BuildFunc receives plain data and returns plain data,
// and the resulting Fixture is compared by its canonical JSON form.
package fixture

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/storecheck/internal/catalog"
)

// Built-in fixture kinds.
const (
	KindCart    = "cart"
	KindProduct = "product"
)

// ErrUnknownFixture is returned by Build for an unregistered kind.
var ErrUnknownFixture = errors.New("unknown fixture kind")

// Fixture is a named, structured test-data object.
type Fixture struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
}

// Canonical returns the canonical JSON encoding of the fixture.
func (f *Fixture) Canonical() ([]byte, error) {
	return MarshalCanonical(map[string]any{
		"kind": f.Kind,
		"data": f.Data,
	})
}

// Hash returns the hex sha256 of the canonical encoding.
func (f *Fixture) Hash() (string, error) {
	data, err := f.Canonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Equal reports whether two fixtures have the same canonical encoding.
func (f *Fixture) Equal(other *Fixture) bool {
	if f == nil || other == nil {
		return f == other
	}
	a, errA := f.Canonical()
	b, errB := other.Canonical()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// BuildFunc shapes raw data into fixture data. It must not retain or
// mutate its input.
type BuildFunc func(data map[string]any) (map[string]any, error)

// Factory maps fixture kinds to build functions.
type Factory struct {
	mu    sync.RWMutex
	kinds map[string]BuildFunc
}

// NewFactory returns a factory with the built-in kinds registered.
func NewFactory() *Factory {
	f := &Factory{kinds: make(map[string]BuildFunc)}
	f.kinds[KindCart] = buildCart
	f.kinds[KindProduct] = buildProduct
	return f
}

// Register adds or replaces a fixture kind.
func (f *Factory) Register(kind string, fn BuildFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds[kind] = fn
}

// Kinds returns registered kinds in sorted order.
func (f *Factory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]string, 0, len(f.kinds))
	for k := range f.kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build constructs a fixture of the given kind.
func (f *Factory) Build(kind string, data map[string]any) (*Fixture, error) {
	f.mu.RLock()
	fn, ok := f.kinds[kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFixture, kind)
	}

	built, err := fn(deepCopyMap(data))
	if err != nil {
		return nil, fmt.Errorf("build %s fixture: %w", kind, err)
	}
	// Reject data that cannot be compared later.
	fx := &Fixture{Kind: kind, Data: built}
	if _, err := fx.Canonical(); err != nil {
		return nil, fmt.Errorf("build %s fixture: %w", kind, err)
	}
	return fx, nil
}

// InjectProducts returns a copy of the cart spec with the product list
// stored under items.products. Other keys under items are kept.
func InjectProducts(cart map[string]any, products []catalog.Product) map[string]any {
	out := deepCopyMap(cart)

	items, _ := out["items"].(map[string]any)
	if items == nil {
		items = make(map[string]any)
	}
	list := make([]any, len(products))
	for i, p := range products {
		list[i] = p.ToMap()
	}
	items["products"] = list
	out["items"] = items
	return out
}

// Products extracts items.products from cart fixture data.
func Products(data map[string]any) []map[string]any {
	items, _ := data["items"].(map[string]any)
	if items == nil {
		return nil
	}
	raw, _ := items["products"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, p := range raw {
		if m, ok := p.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func buildCart(data map[string]any) (map[string]any, error) {
	items, ok := data["items"]
	if !ok {
		return nil, fmt.Errorf("cart requires items")
	}
	if _, ok := items.(map[string]any); !ok {
		return nil, fmt.Errorf("cart items must be a map, got %T", items)
	}
	return data, nil
}

func buildProduct(data map[string]any) (map[string]any, error) {
	if sku, _ := data["sku"].(string); sku == "" {
		return nil, fmt.Errorf("product requires sku")
	}
	return data, nil
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = deepCopy(elem)
		}
		return out
	default:
		return val
	}
}
