package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/config"
)

const cartScenario = `name: cart
description: "Add products to the cart"
variations:
  - name: simple_product
    description: "One simple product"
    products:
      - type: simple
        sku: A
    assertions:
      - type: cart_products
        skus: [A]
      - type: cart_count
        count: 1

  - name: https_frontend_admin
    description: "Secure storefront, reverted afterwards"
    products:
      - type: simple
        sku: B
    config_data: enable_https_frontend_admin
    assertions:
      - type: env_scheme
        scheme: https
      - type: cart_products
        skus: [B]
      - type: config_value
        path: web/secure/use_in_frontend
        value: "No"
`

const failingScenario = `name: failing
description: "Expects more than it adds"
variations:
  - name: too_many
    products:
      - sku: A
    assertions:
      - type: cart_count
        count: 5
`

// testEnvironment pins the storefront URLs so the process environment
// cannot leak into command tests.
func testEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv(config.KeyFrontendURL, "http://shop.test/")
	t.Setenv(config.KeyBackendURL, "http://shop.test/admin/")
}

// writeScenario writes a scenario file into dir and returns its path.
func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
