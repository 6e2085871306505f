package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/storecheck/internal/browser"
	"github.com/roach88/storecheck/internal/cache"
	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/store"
	"github.com/roach88/storecheck/internal/variant"
)

// Storefront backends.
const (
	BackendSQLite  = "sqlite"
	BackendBrowser = "browser"
)

// Cache flushers.
const (
	CacheNone    = "none"
	CacheCommand = "command"
	CacheRedis   = "redis"
	CacheAdmin   = "admin"
)

// storefront is what one scenario runs against.
type storefront struct {
	catalog    catalog.Catalog
	storefront catalog.Storefront
	config     variant.ConfigStore
	close      func() error
}

// backend opens storefronts and owns the run log.
type backend struct {
	logger *slog.Logger

	// shop is the live storefront of the browser backend.
	shop *browser.Shop

	runLog  *store.Store
	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}

// openBackend prepares the backend named by opts.Backend and opens the run
// log when --db is set.
func openBackend(ctx context.Context, opts *RunOptions, settings *config.Settings, logger *slog.Logger) (*backend, error) {
	b := &backend{logger: logger}

	switch opts.Backend {
	case BackendSQLite:
	case BackendBrowser:
		session, err := browser.Start(browser.Options{
			Headless: settings.Headless,
			Timeout:  settings.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, session.Close)

		b.shop = browser.NewShop(session, settings.Env, browser.Credentials{
			User:     settings.AdminUser,
			Password: settings.AdminPassword,
		}, logger)
		if err := b.shop.Login(ctx); err != nil {
			return nil, errors.Join(err, b.Close())
		}
	default:
		return nil, fmt.Errorf("unknown backend %q: must be %s or %s", opts.Backend, BackendSQLite, BackendBrowser)
	}

	if opts.Database != "" {
		logger.Debug("opening run log", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open run log: %w", err), b.Close())
		}
		b.closers = append(b.closers, st.Close)
		b.runLog = st
	}

	return b, nil
}

// open returns the storefront for one variation. The SQLite backend gives
// every variation a fresh in-memory shop, so variations may reuse SKUs.
// The browser backend reuses its live shop.
func (b *backend) open() (*storefront, error) {
	if b.shop != nil {
		return &storefront{
			catalog:    b.shop,
			storefront: b.shop,
			config:     b.shop,
			close:      func() error { return nil },
		}, nil
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open storefront database: %w", err)
	}
	return &storefront{catalog: st, storefront: st, config: st, close: st.Close}, nil
}

// openFlusher returns the cache flusher named by name.
func (b *backend) openFlusher(ctx context.Context, name string, settings *config.Settings) (cache.Flusher, error) {
	switch name {
	case "", CacheNone:
		return cache.Nop{}, nil
	case CacheCommand:
		f, err := cache.NewCommandFlusher(settings.CacheCommand, "", b.logger)
		if err != nil {
			return nil, err
		}
		return f, nil
	case CacheRedis:
		f, err := cache.NewRedisFlusher(ctx, cache.RedisOptions{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		}, b.logger)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, f.Close)
		return f, nil
	case CacheAdmin:
		if b.shop == nil {
			return nil, fmt.Errorf("--cache %s requires --backend %s", CacheAdmin, BackendBrowser)
		}
		return b.shop, nil
	default:
		return nil, fmt.Errorf("unknown cache flusher %q: must be one of %s, %s, %s, %s",
			name, CacheNone, CacheCommand, CacheRedis, CacheAdmin)
	}
}
