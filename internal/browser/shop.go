package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
)

// Credentials log into the admin panel.
type Credentials struct {
	User     string
	Password string
}

// Shop drives a storefront and its admin through one session.
//
// Admin operations (products, configuration, cache) use the base
// environment given to NewShop. Storefront operations use the environment
// of the call, so a run that switched to https is served over https.
type Shop struct {
	session  *Session
	env      config.Environment
	creds    Credentials
	logger   *slog.Logger
	loggedIn bool
}

// NewShop creates a shop over session.
func NewShop(session *Session, env config.Environment, creds Credentials, logger *slog.Logger) *Shop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Shop{session: session, env: env, creds: creds, logger: logger}
}

// Login signs into the admin. Later admin operations call it as needed.
func (s *Shop) Login(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.loggedIn {
		return nil
	}
	if s.creds.User == "" || s.creds.Password == "" {
		return fmt.Errorf("admin credentials not configured")
	}

	if err := s.session.Goto(config.JoinPath(s.env.BackendURL, "")); err != nil {
		return err
	}
	page := s.session.Page()

	user := page.Locator(selAdminUsername)
	if err := user.WaitFor(); err != nil {
		return fmt.Errorf("admin login form not found: %w", err)
	}
	if err := user.Fill(s.creds.User); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := page.Locator(selAdminPassword).Fill(s.creds.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := page.Locator(selAdminSignIn).Click(); err != nil {
		return fmt.Errorf("failed to click sign in: %w", err)
	}
	if err := page.Locator(selAdminMenu).WaitFor(); err != nil {
		return fmt.Errorf("admin login failed: %w", err)
	}

	s.loggedIn = true
	s.logger.Info("admin login", "user", s.creds.User)
	return nil
}

// CreateProduct fills and saves the admin product form.
func (s *Shop) CreateProduct(ctx context.Context, spec catalog.ProductSpec) (catalog.Product, error) {
	if err := s.Login(ctx); err != nil {
		return catalog.Product{}, err
	}
	if spec.SKU == "" {
		return catalog.Product{}, fmt.Errorf("browser catalog requires a sku")
	}
	spec = spec.WithDefaults()

	if err := s.session.Goto(NewProductURL(s.env, spec.Type)); err != nil {
		return catalog.Product{}, err
	}
	page := s.session.Page()
	if err := waitIdle(page); err != nil {
		return catalog.Product{}, err
	}

	values := map[string]string{
		"name":  spec.Name,
		"sku":   spec.SKU,
		"price": spec.Price,
		"qty":   strconv.Itoa(spec.Qty),
	}
	for _, field := range []string{"name", "sku", "price", "qty"} {
		input := page.Locator(productFormInputs[field])
		// Not every product type has price and qty inputs.
		if n, _ := input.Count(); n == 0 {
			continue
		}
		if err := input.Fill(values[field]); err != nil {
			return catalog.Product{}, fmt.Errorf("product %s: fill %s: %w", spec.SKU, field, err)
		}
	}

	if err := page.Locator(selProductSave).Click(); err != nil {
		return catalog.Product{}, fmt.Errorf("product %s: save: %w", spec.SKU, err)
	}
	if err := page.WaitForURL("**/id/*/**"); err != nil {
		return catalog.Product{}, fmt.Errorf("product %s: not saved: %w", spec.SKU, err)
	}
	id, err := productIDFromURL(page.URL())
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product %s: %w", spec.SKU, err)
	}

	p := catalog.Product{
		ID:         id,
		SKU:        spec.SKU,
		Type:       spec.Type,
		Name:       spec.Name,
		Price:      spec.Price,
		URLKey:     catalog.URLKey(spec.Name),
		Attributes: spec.Attributes,
	}
	s.logger.Info("product saved", "id", p.ID, "sku", p.SKU)
	return p, nil
}

// AddProductToCart opens the product page and presses "Add to Cart".
func (s *Shop) AddProductToCart(ctx context.Context, env config.Environment, p catalog.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.session.Goto(ProductURL(env, p.URLKey)); err != nil {
		return err
	}
	page := s.session.Page()

	if err := page.Locator(selAddToCart).Click(); err != nil {
		return fmt.Errorf("product %s: add to cart: %w", p.SKU, err)
	}
	return waitForMessage(page)
}

// CartItems reads the shopping cart table.
// The cart page shows no SKU or product id, so those stay empty.
func (s *Shop) CartItems(ctx context.Context, env config.Environment) ([]catalog.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.session.Goto(CartURL(env)); err != nil {
		return nil, err
	}
	page := s.session.Page()

	rows := page.Locator(selCartRows)
	n, err := rows.Count()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	items := make([]catalog.CartItem, 0, n)
	for i := 0; i < n; i++ {
		row := rows.Nth(i)
		name, err := row.Locator(selCartItemName).TextContent()
		if err != nil {
			return nil, fmt.Errorf("read cart row %d: %w", i, err)
		}
		qtyText, err := row.Locator(selCartItemQty).InputValue()
		if err != nil {
			return nil, fmt.Errorf("read cart row %d: %w", i, err)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
		if err != nil {
			return nil, fmt.Errorf("read cart row %d: qty %q: %w", i, qtyText, err)
		}
		items = append(items, catalog.CartItem{Name: strings.TrimSpace(name), Qty: qty})
	}
	return items, nil
}

// Flush presses "Flush Magento Cache" on the cache management page.
func (s *Shop) Flush(ctx context.Context) error {
	if err := s.Login(ctx); err != nil {
		return err
	}
	if err := s.session.Goto(CacheManagementURL(s.env)); err != nil {
		return err
	}
	page := s.session.Page()
	if err := page.Locator(selFlushCache).Click(); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := waitForMessage(page); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	s.logger.Info("cache flushed", "via", "admin")
	return nil
}

// waitForMessage waits for the page message area and fails on an error
// message.
func waitForMessage(page playwright.Page) error {
	msg := page.Locator(selMessageSuccess + ", " + selMessageError).First()
	if err := msg.WaitFor(); err != nil {
		return fmt.Errorf("no confirmation message: %w", err)
	}
	if n, _ := page.Locator(selMessageError).Count(); n > 0 {
		text, _ := page.Locator(selMessageError).First().TextContent()
		return fmt.Errorf("storefront error: %s", strings.TrimSpace(text))
	}
	return nil
}

// waitIdle waits for the admin loading spinner to go away.
func waitIdle(page playwright.Page) error {
	err := page.Locator(selSpinner).First().WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateHidden,
	})
	if err != nil {
		return fmt.Errorf("admin page did not finish loading: %w", err)
	}
	return nil
}
