package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/fixture"
	"github.com/roach88/storecheck/internal/testutil"
)

func resultWithCart(t *testing.T, skus ...string) *Result {
	t.Helper()
	products := make([]catalog.Product, len(skus))
	for i, sku := range skus {
		products[i] = catalog.Product{ID: int64(i + 1), SKU: sku, Type: catalog.TypeSimple, Name: sku, Price: "1.00", URLKey: sku}
	}
	cart, err := fixture.NewFactory().Build(fixture.KindCart, fixture.InjectProducts(nil, products))
	require.NoError(t, err)

	res := NewResult("r", "s", "v")
	res.Env = testEnv
	res.Fixtures[fixture.KindCart] = cart
	res.record(TraceEvent{Kind: "setup_configuration"})
	res.record(TraceEvent{Kind: "create_products"})
	res.record(TraceEvent{Kind: "add_products_to_cart"})
	return res
}

func TestAssertCartProducts(t *testing.T) {
	res := resultWithCart(t, "A", "B")

	assert.NoError(t, assertCartProducts(res, Assertion{SKUs: []string{"A", "B"}}))

	err := assertCartProducts(res, Assertion{SKUs: []string{"B", "A"}})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertCartProducts, aerr.Type)
	assert.Contains(t, aerr.Actual, "[A B]")

	err = assertCartProducts(NewResult("r", "s", "v"), Assertion{SKUs: []string{"A"}})
	assert.ErrorContains(t, err, "no cart fixture")
}

func TestAssertCartProducts_EmptyCart(t *testing.T) {
	res := resultWithCart(t)
	assert.NoError(t, assertCartProducts(res, Assertion{}))
}

func TestAssertCartCount(t *testing.T) {
	shop := testutil.NewMemoryShop()
	ctx := context.Background()
	a, err := shop.CreateProduct(ctx, catalog.ProductSpec{SKU: "A"})
	require.NoError(t, err)
	require.NoError(t, shop.AddProductToCart(ctx, testEnv, a))
	require.NoError(t, shop.AddProductToCart(ctx, testEnv, a))

	actx := &AssertionContext{Ctx: ctx, Storefront: shop}
	res := resultWithCart(t, "A")

	assert.NoError(t, assertCartCount(actx, res, Assertion{Count: 2}))
	assert.ErrorContains(t, assertCartCount(actx, res, Assertion{Count: 1}), "2 units in 1 lines")
	assert.Error(t, assertCartCount(nil, res, Assertion{Count: 1}))
}

func TestAssertConfigValue(t *testing.T) {
	store := testutil.NewMemoryConfigStore(map[string]string{"web/secure/use_in_frontend": "No"})
	actx := &AssertionContext{Ctx: context.Background(), Config: store}

	assert.NoError(t, assertConfigValue(actx, Assertion{Path: "web/secure/use_in_frontend", Value: "No"}))
	assert.ErrorContains(t,
		assertConfigValue(actx, Assertion{Path: "web/secure/use_in_frontend", Value: "Yes"}),
		`web/secure/use_in_frontend = "No"`)

	assert.NoError(t, assertConfigValue(actx, Assertion{Path: "web/secure/base_url", Absent: true}))
	assert.ErrorContains(t,
		assertConfigValue(actx, Assertion{Path: "web/secure/use_in_frontend", Absent: true}),
		"has no value")
	assert.ErrorContains(t,
		assertConfigValue(actx, Assertion{Path: "web/secure/base_url", Value: "x"}),
		"web/secure/base_url has no value")
}

func TestAssertEnvScheme(t *testing.T) {
	res := resultWithCart(t)
	assert.NoError(t, assertEnvScheme(res, Assertion{Scheme: "http"}))
	assert.Error(t, assertEnvScheme(res, Assertion{Scheme: "https"}))

	secure, err := res.Env.WithScheme("https")
	require.NoError(t, err)
	res.Env = secure
	assert.NoError(t, assertEnvScheme(res, Assertion{Scheme: "https"}))
	assert.Equal(t, "https", config.Scheme(res.Env.BackendURL))
}

func TestAssertTraceOrder(t *testing.T) {
	trace := resultWithCart(t).Trace

	assert.NoError(t, assertTraceOrder(trace, Assertion{Steps: []string{"setup_configuration", "add_products_to_cart"}}))

	err := assertTraceOrder(trace, Assertion{Steps: []string{"add_products_to_cart", "create_products"}})
	assert.ErrorContains(t, err, "should be before")

	err = assertTraceOrder(trace, Assertion{Steps: []string{"teardown"}})
	assert.ErrorContains(t, err, "missing step: teardown")
}

func TestAssertTraceOrder_IgnoresFailedSteps(t *testing.T) {
	res := NewResult("r", "s", "v")
	res.record(TraceEvent{Kind: "create_products", Error: "boom"})

	err := assertTraceOrder(res.Trace, Assertion{Steps: []string{"create_products"}})
	assert.ErrorContains(t, err, "missing step")
}

func TestEvaluateAssertions(t *testing.T) {
	res := resultWithCart(t, "A")

	errs := EvaluateAssertions(res, []Assertion{
		{Type: AssertCartProducts, SKUs: []string{"A"}},
		{Type: AssertEnvScheme, Scheme: "https"},
		{Type: "bogus"},
	}, &AssertionContext{Ctx: context.Background()})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion 2 (env_scheme)")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceOrder,
		Expected: "x",
		Actual:   "y",
		Trace:    []TraceEvent{{Seq: 1, Kind: "create_products"}, {Seq: 2, Kind: "add_products_to_cart", Error: "boom"}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_order")
	assert.Contains(t, msg, "[1] create_products")
	assert.Contains(t, msg, "[2] add_products_to_cart error=boom")
}
