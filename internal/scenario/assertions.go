package scenario

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/fixture"
	"github.com/roach88/storecheck/internal/variant"
)

// AssertionContext provides the collaborators assertions may query.
// Assertions run after teardown, so Config reflects the restored state.
type AssertionContext struct {
	Ctx        context.Context
	Config     variant.ConfigStore
	Storefront catalog.Storefront
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			if ev.Error != "" {
				fmt.Fprintf(&buf, "  [%d] %s error=%s\n", ev.Seq, ev.Kind, ev.Error)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, ev.Kind)
			}
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(res *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(res, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i+1, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(res *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertCartProducts:
		return assertCartProducts(res, a)
	case AssertCartCount:
		return assertCartCount(actx, res, a)
	case AssertConfigValue:
		return assertConfigValue(actx, a)
	case AssertEnvScheme:
		return assertEnvScheme(res, a)
	case AssertTraceOrder:
		return assertTraceOrder(res.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertCartProducts checks the SKUs under items.products of the cart
// fixture, in order.
func assertCartProducts(res *Result, a Assertion) error {
	cart := res.Cart()
	if cart == nil {
		return &AssertionError{
			Type:     AssertCartProducts,
			Expected: fmt.Sprintf("cart fixture with products %v", a.SKUs),
			Actual:   "no cart fixture",
			Trace:    res.Trace,
		}
	}

	var got []string
	for _, p := range fixture.Products(cart.Data) {
		sku, _ := p["sku"].(string)
		got = append(got, sku)
	}
	if !slices.Equal(got, a.SKUs) {
		return &AssertionError{
			Type:     AssertCartProducts,
			Expected: fmt.Sprintf("products %v", a.SKUs),
			Actual:   fmt.Sprintf("products %v", got),
			Trace:    res.Trace,
		}
	}
	return nil
}

// assertCartCount checks the total quantity in the storefront cart.
func assertCartCount(actx *AssertionContext, res *Result, a Assertion) error {
	if actx == nil || actx.Storefront == nil {
		return fmt.Errorf("cart_count requires a storefront")
	}
	items, err := actx.Storefront.CartItems(actx.Ctx, res.Env)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}
	total := 0
	for _, item := range items {
		total += item.Qty
	}
	if total != a.Count {
		return &AssertionError{
			Type:     AssertCartCount,
			Expected: fmt.Sprintf("%d units in cart", a.Count),
			Actual:   fmt.Sprintf("%d units in %d lines", total, len(items)),
			Trace:    res.Trace,
		}
	}
	return nil
}

// assertConfigValue checks a configuration path as it reads after teardown.
func assertConfigValue(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Config == nil {
		return fmt.Errorf("config_value requires a config store")
	}
	value, ok, err := actx.Config.GetConfig(actx.Ctx, a.Path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", a.Path, err)
	}

	actual := fmt.Sprintf("%s = %q", a.Path, value)
	if !ok {
		actual = fmt.Sprintf("%s has no value", a.Path)
	}

	if a.Absent {
		if ok {
			return &AssertionError{
				Type:     AssertConfigValue,
				Expected: fmt.Sprintf("%s has no value", a.Path),
				Actual:   actual,
			}
		}
		return nil
	}
	if !ok || value != a.Value {
		return &AssertionError{
			Type:     AssertConfigValue,
			Expected: fmt.Sprintf("%s = %q", a.Path, a.Value),
			Actual:   actual,
		}
	}
	return nil
}

// assertEnvScheme checks the scheme of the frontend URL the steps used.
func assertEnvScheme(res *Result, a Assertion) error {
	got := config.Scheme(res.Env.FrontendURL)
	if got != a.Scheme {
		return &AssertionError{
			Type:     AssertEnvScheme,
			Expected: fmt.Sprintf("frontend scheme %s", a.Scheme),
			Actual:   fmt.Sprintf("frontend url %s", res.Env.FrontendURL),
			Trace:    res.Trace,
		}
	}
	return nil
}

// assertTraceOrder checks that step kinds appear in the specified order.
// Kinds don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if ev.Error != "" {
			continue
		}
		if _, seen := positions[ev.Kind]; !seen {
			positions[ev.Kind] = i + 1 // 1-indexed for readability
		}
	}

	for _, kind := range a.Steps {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all steps present: %v", a.Steps),
				Actual:   fmt.Sprintf("missing step: %s", kind),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Steps); i++ {
		prev, curr := a.Steps[i-1], a.Steps[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("steps in order: %v", a.Steps),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}
