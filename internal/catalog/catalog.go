// Package catalog defines the product and cart types exchanged between
// scenario steps and the storefront collaborators that create products and
// fill carts.
//
// Implementations live elsewhere: internal/store provides an in-process
// SQLite storefront, internal/browser drives a real one over playwright.
package catalog

import (
	"context"
	"regexp"
	"strings"

	"github.com/roach88/storecheck/internal/config"
)

// Product type tags accepted in product specs.
const (
	TypeSimple       = "simple"
	TypeVirtual      = "virtual"
	TypeDownloadable = "downloadable"
	TypeConfigurable = "configurable"
	TypeBundle       = "bundle"
	TypeGrouped      = "grouped"
)

// Defaults applied to product specs that leave fields empty.
const (
	DefaultPrice = "100.00"
	DefaultQty   = 1000
)

// ProductSpec declares a product to create.
type ProductSpec struct {
	Type       string         `yaml:"type" json:"type"`
	SKU        string         `yaml:"sku,omitempty" json:"sku,omitempty"`
	Name       string         `yaml:"name,omitempty" json:"name,omitempty"`
	Price      string         `yaml:"price,omitempty" json:"price,omitempty"`
	Qty        int            `yaml:"qty,omitempty" json:"qty,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// WithDefaults fills empty fields. SKU is left to the catalog since
// generated SKUs must be unique per backend.
func (s ProductSpec) WithDefaults() ProductSpec {
	if s.Type == "" {
		s.Type = TypeSimple
	}
	if s.Name == "" {
		s.Name = s.SKU
	}
	if s.Price == "" {
		s.Price = DefaultPrice
	}
	if s.Qty == 0 {
		s.Qty = DefaultQty
	}
	return s
}

// Product is a product that exists in the storefront.
type Product struct {
	ID         int64          `json:"id"`
	SKU        string         `json:"sku"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Price      string         `json:"price"`
	URLKey     string         `json:"url_key"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ToMap renders the product as plain data for fixture construction.
func (p Product) ToMap() map[string]any {
	m := map[string]any{
		"id":      p.ID,
		"sku":     p.SKU,
		"type":    p.Type,
		"name":    p.Name,
		"price":   p.Price,
		"url_key": p.URLKey,
	}
	if len(p.Attributes) > 0 {
		attrs := make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			attrs[k] = v
		}
		m["attributes"] = attrs
	}
	return m
}

// CartItem is one line of the shopping cart.
type CartItem struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
}

// Catalog creates products.
type Catalog interface {
	CreateProduct(ctx context.Context, spec ProductSpec) (Product, error)
}

// Storefront is the customer-facing side of the shop: product pages and
// the cart. Calls are made against the base URLs in env.
type Storefront interface {
	AddProductToCart(ctx context.Context, env config.Environment, p Product) error
	CartItems(ctx context.Context, env config.Environment) ([]CartItem, error)
}

// CartClearer is a Storefront that can empty its cart. The harness clears
// such carts before each variation.
type CartClearer interface {
	ClearCart(ctx context.Context) error
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// URLKey derives the storefront url key for a product name.
func URLKey(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
