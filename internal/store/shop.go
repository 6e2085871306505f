package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
)

// Storefront errors.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInsecureFrontend = errors.New("storefront requires https")
)

const pathSecureUseInFrontend = "web/secure/use_in_frontend"

// CreateProduct inserts a product. An empty SKU gets a generated one.
func (s *Store) CreateProduct(ctx context.Context, spec catalog.ProductSpec) (catalog.Product, error) {
	if spec.SKU == "" {
		spec.SKU = "product-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	spec = spec.WithDefaults()

	attrs := spec.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("create product %s: attributes: %w", spec.SKU, err)
	}

	urlKey := catalog.URLKey(spec.Name)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, type, name, price, qty, url_key, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, spec.SKU, spec.Type, spec.Name, spec.Price, spec.Qty, urlKey, string(attrsJSON))
	if err != nil {
		return catalog.Product{}, fmt.Errorf("create product %s: %w", spec.SKU, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("create product %s: %w", spec.SKU, err)
	}

	return catalog.Product{
		ID:         id,
		SKU:        spec.SKU,
		Type:       spec.Type,
		Name:       spec.Name,
		Price:      spec.Price,
		URLKey:     urlKey,
		Attributes: spec.Attributes,
	}, nil
}

// ProductBySKU loads a product by SKU.
func (s *Store) ProductBySKU(ctx context.Context, sku string) (catalog.Product, error) {
	var (
		p         catalog.Product
		attrsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sku, type, name, price, url_key, attributes
		FROM products WHERE sku = ?
	`, sku).Scan(&p.ID, &p.SKU, &p.Type, &p.Name, &p.Price, &p.URLKey, &attrsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("%w: sku %q", ErrProductNotFound, sku)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("load product %s: %w", sku, err)
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
		return catalog.Product{}, fmt.Errorf("load product %s: attributes: %w", sku, err)
	}
	if len(attrs) > 0 {
		p.Attributes = attrs
	}
	return p, nil
}

// AddProductToCart adds one unit of p to the cart.
//
// Like a real storefront with secure URLs enabled, it refuses requests made
// against a plain http frontend URL while web/secure/use_in_frontend is on.
func (s *Store) AddProductToCart(ctx context.Context, env config.Environment, p catalog.Product) error {
	secure, _, err := s.GetConfig(ctx, pathSecureUseInFrontend)
	if err != nil {
		return err
	}
	if isEnabled(secure) && config.Scheme(env.FrontendURL) != "https" {
		return fmt.Errorf("%w: frontend url %s", ErrInsecureFrontend, env.FrontendURL)
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE id = ?`, p.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: id %d (%s)", ErrProductNotFound, p.ID, p.SKU)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_items (product_id, qty) VALUES (?, 1)
		ON CONFLICT(product_id) DO UPDATE SET qty = qty + 1
	`, p.ID)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// CartItems lists cart lines in the order they were first added.
func (s *Store) CartItems(ctx context.Context, _ config.Environment) ([]catalog.CartItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.product_id, p.sku, p.name, c.qty
		FROM cart_items c JOIN products p ON p.id = c.product_id
		ORDER BY c.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var items []catalog.CartItem
	for rows.Next() {
		var item catalog.CartItem
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.Qty); err != nil {
			return nil, fmt.Errorf("list cart: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items`); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func isEnabled(v string) bool {
	switch strings.ToLower(v) {
	case "1", "yes", "true":
		return true
	}
	return false
}
