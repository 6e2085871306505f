package step

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/storecheck/internal/catalog"
)

// Built-in step kinds.
const (
	KindSetupConfiguration Kind = "setup_configuration"
	KindSecureBaseURLs     Kind = "secure_base_urls"
	KindCreateProducts     Kind = "create_products"
	KindAddProductsToCart  Kind = "add_products_to_cart"
)

// Parameter names of the built-in steps.
const (
	ParamConfigData = "config_data"
	ParamFlushCache = "flush_cache"
	ParamProducts   = "products"
)

// Output keys of the built-in steps.
const (
	OutputConfigVariant = "config_variant"
	OutputFrontendURL   = "frontend_url"
	OutputBackendURL    = "backend_url"
	OutputProducts      = "products"
	OutputCartProducts  = "cart_products"
)

// DefaultRegistry returns a registry with the built-in steps.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Kinds are distinct constants; Register cannot fail here.
	_ = r.Register(KindSetupConfiguration, newSetupConfiguration)
	_ = r.Register(KindSecureBaseURLs, newSecureBaseURLs)
	_ = r.Register(KindCreateProducts, newCreateProducts)
	_ = r.Register(KindAddProductsToCart, newAddProductsToCart)
	return r
}

func loggerOf(deps Deps) *slog.Logger {
	if deps.Logger != nil {
		return deps.Logger
	}
	return slog.Default()
}

// newSetupConfiguration applies the requested config variant through the
// run's toggle. Without config_data the step does nothing.
func newSetupConfiguration(params Params, deps Deps) (Step, error) {
	name, _, err := Decode[string](params, ParamConfigData)
	if err != nil {
		return nil, err
	}
	flush, _, err := Decode[bool](params, ParamFlushCache)
	if err != nil {
		return nil, err
	}

	return Func(func(ctx context.Context, sc *Context) (Output, error) {
		if name == "" {
			return Output{}, nil
		}
		if sc.Toggle == nil {
			return nil, fmt.Errorf("config variant %q requested but run has no toggle", name)
		}
		if _, err := sc.Toggle.Apply(ctx, name, sc.Env, flush); err != nil {
			return nil, err
		}
		return Output{OutputConfigVariant: name}, nil
	}), nil
}

// newSecureBaseURLs switches the run's base URLs to https.
func newSecureBaseURLs(params Params, deps Deps) (Step, error) {
	logger := loggerOf(deps)
	return Func(func(ctx context.Context, sc *Context) (Output, error) {
		env, err := sc.Env.WithScheme("https")
		if err != nil {
			return nil, err
		}
		logger.Debug("base urls rewritten",
			"frontend_url", env.FrontendURL,
			"backend_url", env.BackendURL,
		)
		sc.Env = env
		return Output{
			OutputFrontendURL: env.FrontendURL,
			OutputBackendURL:  env.BackendURL,
		}, nil
	}), nil
}

// newCreateProducts creates every product spec in order.
func newCreateProducts(params Params, deps Deps) (Step, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("%s requires a catalog", KindCreateProducts)
	}
	specs, ok, err := Decode[[]catalog.ProductSpec](params, ParamProducts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, ParamProducts)
	}
	logger := loggerOf(deps)

	return Func(func(ctx context.Context, sc *Context) (Output, error) {
		products := make([]catalog.Product, 0, len(specs))
		for i, spec := range specs {
			p, err := deps.Catalog.CreateProduct(ctx, spec)
			if err != nil {
				return nil, fmt.Errorf("product %d (%s): %w", i, spec.SKU, err)
			}
			logger.Info("product created", "id", p.ID, "sku", p.SKU, "type", p.Type)
			products = append(products, p)
		}
		return Output{OutputProducts: products}, nil
	}), nil
}

// newAddProductsToCart opens each product page and adds the product to
// the cart. Products come from the products param or, when absent, from the
// output of create_products.
func newAddProductsToCart(params Params, deps Deps) (Step, error) {
	if deps.Storefront == nil {
		return nil, fmt.Errorf("%s requires a storefront", KindAddProductsToCart)
	}
	explicit, hasExplicit, err := Decode[[]catalog.Product](params, ParamProducts)
	if err != nil {
		return nil, err
	}
	logger := loggerOf(deps)

	return Func(func(ctx context.Context, sc *Context) (Output, error) {
		products := explicit
		if !hasExplicit {
			var err error
			products, err = sc.Products()
			if err != nil {
				return nil, err
			}
		}
		for _, p := range products {
			if err := deps.Storefront.AddProductToCart(ctx, sc.Env, p); err != nil {
				return nil, fmt.Errorf("add %s to cart: %w", p.SKU, err)
			}
			logger.Info("product added to cart", "sku", p.SKU, "frontend_url", sc.Env.FrontendURL)
		}
		return Output{OutputCartProducts: products}, nil
	}), nil
}
