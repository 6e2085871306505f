// Package browser drives a real storefront and its admin panel through
// playwright-go.
//
// Shop implements catalog.Catalog, catalog.Storefront and
// variant.ConfigStore on top of a handful of page objects:
//   - product view: open a product page and press "Add to Cart"
//   - cart: read the shopping cart table
//   - system configuration: read and save fields of a config section
//   - product form: create a product in the admin
//
// Playwright calls take no context, so every operation checks ctx before
// it starts and relies on the page default timeout while it runs.
package browser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures a browser session.
type Options struct {
	Headless bool
	Timeout  time.Duration

	// SlowMo delays each playwright operation, for watching headed runs.
	SlowMo time.Duration
}

// Session owns one playwright driver, browser, context and page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	logger  *slog.Logger
}

// Start launches Chromium and opens a page.
func Start(opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	s := &Session{pw: pw, logger: logger}

	s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	// Test storefronts commonly run with self-signed certificates once
	// secure URLs are switched on.
	s.bctx, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
		Viewport:          &playwright.Size{Width: 1280, Height: 720},
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("could not create context: %w", err)
	}

	s.page, err = s.bctx.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s.page.SetDefaultTimeout(float64(timeout.Milliseconds()))

	logger.Debug("browser session started", "headless", opts.Headless, "timeout", timeout)
	return s, nil
}

// Page returns the session's page.
func (s *Session) Page() playwright.Page {
	return s.page
}

// Goto navigates to url and waits for the page to load.
func (s *Session) Goto(url string) error {
	s.logger.Debug("navigate", "url", url)
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Close releases the page, context, browser and driver.
func (s *Session) Close() error {
	var errs []error
	if s.page != nil {
		errs = append(errs, s.page.Close())
	}
	if s.bctx != nil {
		errs = append(errs, s.bctx.Close())
	}
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
	}
	return errors.Join(errs...)
}
