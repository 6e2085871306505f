package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/storecheck/internal/cache"
	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/fixture"
	"github.com/roach88/storecheck/internal/step"
	"github.com/roach88/storecheck/internal/variant"
)

// IDGenerator produces run ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Options configures a Harness. Catalog, Storefront and Config are
// required; everything else has a default.
type Options struct {
	Catalog    catalog.Catalog
	Storefront catalog.Storefront
	Config     variant.ConfigStore
	Flusher    cache.Flusher

	Steps    *step.Registry
	Variants *variant.Registry
	Fixtures *fixture.Factory
	IDs      IDGenerator
	Logger   *slog.Logger
}

// Harness runs scenario variations against one storefront.
type Harness struct {
	runner     *Runner
	storefront catalog.Storefront
	config     variant.ConfigStore
	flusher    cache.Flusher
	variants   *variant.Registry
	fixtures   *fixture.Factory
	ids        IDGenerator
	logger     *slog.Logger
}

// New creates a harness.
func New(opts Options) (*Harness, error) {
	if opts.Catalog == nil || opts.Storefront == nil || opts.Config == nil {
		return nil, fmt.Errorf("harness requires catalog, storefront and config store")
	}
	if opts.Flusher == nil {
		opts.Flusher = cache.Nop{}
	}
	if opts.Steps == nil {
		opts.Steps = step.DefaultRegistry()
	}
	if opts.Variants == nil {
		opts.Variants = variant.NewRegistry()
	}
	if opts.Fixtures == nil {
		opts.Fixtures = fixture.NewFactory()
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	deps := step.Deps{
		Catalog:    opts.Catalog,
		Storefront: opts.Storefront,
		Logger:     opts.Logger,
	}
	return &Harness{
		runner:     NewRunner(opts.Steps, deps, opts.Logger),
		storefront: opts.Storefront,
		config:     opts.Config,
		flusher:    opts.Flusher,
		variants:   opts.Variants,
		fixtures:   opts.Fixtures,
		ids:        opts.IDs,
		logger:     opts.Logger,
	}, nil
}

// Plan returns the step plan for v.
//
// secure_base_urls is planned only when v names a known variant that asks
// for it. An unknown variant is left to setup_configuration to report.
func (h *Harness) Plan(v Variation) []Invocation {
	plan := []Invocation{{
		Kind: step.KindSetupConfiguration,
		Params: step.Params{
			step.ParamConfigData: v.ConfigData,
			step.ParamFlushCache: v.FlushCache,
		},
	}}

	if v.ConfigData != "" {
		if cv, err := h.variants.Lookup(v.ConfigData); err == nil && cv.SecureBaseURLs {
			plan = append(plan, Invocation{Kind: step.KindSecureBaseURLs})
		}
	}

	products := v.Products
	if products == nil {
		products = []catalog.ProductSpec{}
	}
	plan = append(plan,
		Invocation{Kind: step.KindCreateProducts, Params: step.Params{step.ParamProducts: products}},
		Invocation{Kind: step.KindAddProductsToCart},
	)
	return plan
}

// Execute runs one variation and builds its cart fixture. A storefront
// implementing catalog.CartClearer starts the variation with an empty cart.
//
// When v names a configuration variant, teardown reverts it exactly once
// after the body, also when the body failed or ctx was cancelled. A
// teardown error is joined with the body error.
//
// The returned Result is never nil; on error it holds the trace up to the
// failing step.
func (h *Harness) Execute(ctx context.Context, scenarioName string, env config.Environment, v Variation) (res *Result, err error) {
	res = NewResult(h.ids.Generate(), scenarioName, v.Name)
	res.Env = env

	if c, ok := h.storefront.(catalog.CartClearer); ok {
		if err := c.ClearCart(ctx); err != nil {
			return res, fmt.Errorf("clear cart: %w", err)
		}
	}

	toggle := variant.NewToggle(h.config, h.flusher, h.variants, h.logger)
	sc := step.NewContext(env, toggle)

	if v.ConfigData != "" {
		defer func() {
			ev := TraceEvent{Kind: KindTeardown}
			if rerr := toggle.Revert(context.WithoutCancel(ctx)); rerr != nil {
				ev.Error = rerr.Error()
				err = errors.Join(err, fmt.Errorf("teardown: %w", rerr))
			}
			res.record(ev)
		}()
	}

	h.logger.Info("variation started",
		"run_id", res.RunID,
		"scenario", scenarioName,
		"variation", v.Name,
		"config_data", v.ConfigData,
	)

	_, runErr := h.runner.Run(ctx, sc, h.Plan(v), res)
	res.Env = sc.Env
	if runErr != nil {
		return res, runErr
	}

	products, err := sc.Products()
	if err != nil {
		return res, err
	}
	cart, err := h.fixtures.Build(fixture.KindCart, fixture.InjectProducts(v.Cart, products))
	if err != nil {
		return res, fmt.Errorf("build cart fixture: %w", err)
	}
	res.Fixtures[fixture.KindCart] = cart

	return res, nil
}

// RunVariation executes v and evaluates its assertions. Execution and
// assertion failures are both reported in the result. Assertions are
// skipped when execution failed.
func (h *Harness) RunVariation(ctx context.Context, scenarioName string, env config.Environment, v Variation) *Result {
	res, err := h.Execute(ctx, scenarioName, env, v)
	if err != nil {
		res.AddError(err.Error())
		h.logger.Warn("variation failed", "run_id", res.RunID, "variation", v.Name, "error", err)
		return res
	}

	actx := &AssertionContext{
		Ctx:        ctx,
		Config:     h.config,
		Storefront: h.storefront,
	}
	for _, msg := range EvaluateAssertions(res, v.Assertions, actx) {
		res.AddError(msg)
	}

	h.logger.Info("variation finished",
		"run_id", res.RunID,
		"variation", v.Name,
		"pass", res.Pass,
	)
	return res
}

// Run runs every variation of sc in order. It stops early only when ctx
// is done.
func (h *Harness) Run(ctx context.Context, env config.Environment, sc *Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(sc.Variations))
	for _, v := range sc.Variations {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, h.RunVariation(ctx, sc.Name, env, v))
	}
	return results, nil
}
