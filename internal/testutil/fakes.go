// Package testutil provides in-memory collaborators for harness tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
)

// CountingFlusher records cache flushes.
type CountingFlusher struct {
	mu    sync.Mutex
	count int
	Err   error
}

// Flush implements cache.Flusher.
func (f *CountingFlusher) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return f.Err
}

// Count returns the number of Flush calls.
func (f *CountingFlusher) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// MemoryConfigStore is a map-backed configuration store.
type MemoryConfigStore struct {
	mu     sync.Mutex
	values map[string]string
	writes []string

	// FailSet makes SetConfig fail for the given path.
	FailSet string
}

// NewMemoryConfigStore creates a store seeded with values.
func NewMemoryConfigStore(values map[string]string) *MemoryConfigStore {
	s := &MemoryConfigStore{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// GetConfig implements variant.ConfigStore.
func (s *MemoryConfigStore) GetConfig(_ context.Context, path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[path]
	return v, ok, nil
}

// SetConfig implements variant.ConfigStore.
func (s *MemoryConfigStore) SetConfig(_ context.Context, path, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet != "" && path == s.FailSet {
		return fmt.Errorf("set %s: injected failure", path)
	}
	s.values[path] = value
	s.writes = append(s.writes, path+"="+value)
	return nil
}

// DeleteConfig implements variant.ConfigStore.
func (s *MemoryConfigStore) DeleteConfig(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, path)
	s.writes = append(s.writes, path+"=<deleted>")
	return nil
}

// Values returns a copy of the current values.
func (s *MemoryConfigStore) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Writes returns the write log as "path=value" entries.
func (s *MemoryConfigStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

// MemoryShop is an in-memory catalog and storefront.
type MemoryShop struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]catalog.Product
	cart     []catalog.CartItem
	envs     []config.Environment

	// FailAddSKU makes AddProductToCart fail for the given SKU.
	FailAddSKU string
}

// NewMemoryShop creates an empty shop.
func NewMemoryShop() *MemoryShop {
	return &MemoryShop{products: make(map[int64]catalog.Product)}
}

// CreateProduct implements catalog.Catalog.
func (s *MemoryShop) CreateProduct(_ context.Context, spec catalog.ProductSpec) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if spec.SKU == "" {
		spec.SKU = fmt.Sprintf("sku-%d", s.nextID)
	}
	spec = spec.WithDefaults()
	p := catalog.Product{
		ID:         s.nextID,
		SKU:        spec.SKU,
		Type:       spec.Type,
		Name:       spec.Name,
		Price:      spec.Price,
		URLKey:     catalog.URLKey(spec.Name),
		Attributes: spec.Attributes,
	}
	s.products[p.ID] = p
	return p, nil
}

// AddProductToCart implements catalog.Storefront.
func (s *MemoryShop) AddProductToCart(_ context.Context, env config.Environment, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAddSKU != "" && p.SKU == s.FailAddSKU {
		return fmt.Errorf("add %s to cart: injected failure", p.SKU)
	}
	if _, ok := s.products[p.ID]; !ok {
		return fmt.Errorf("product %d not found", p.ID)
	}
	s.envs = append(s.envs, env)
	for i := range s.cart {
		if s.cart[i].ProductID == p.ID {
			s.cart[i].Qty++
			return nil
		}
	}
	s.cart = append(s.cart, catalog.CartItem{ProductID: p.ID, SKU: p.SKU, Name: p.Name, Qty: 1})
	return nil
}

// CartItems implements catalog.Storefront.
func (s *MemoryShop) CartItems(context.Context, config.Environment) ([]catalog.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.CartItem(nil), s.cart...), nil
}

// ClearCart implements catalog.CartClearer.
func (s *MemoryShop) ClearCart(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	return nil
}

// Environments returns the environments AddProductToCart was called with.
func (s *MemoryShop) Environments() []config.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]config.Environment(nil), s.envs...)
}
