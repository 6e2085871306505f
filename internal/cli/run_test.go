package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestRunCommandNonExistentPath(t *testing.T) {
	testEnvironment(t)

	_, err := execute(t, "run", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestRunCommandPassingScenario(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "cart.yaml", cartScenario)

	out, err := execute(t, "run", dir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ cart/simple_product")
	assert.Contains(t, out, "✓ cart/https_frontend_admin")
	assert.Contains(t, out, "Run Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All variations passed")
}

func TestRunCommandVariationsReuseSKU(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "reuse.yaml", `name: reuse
description: "Two data sets with the same product"
variations:
  - name: first
    products:
      - sku: A
    assertions:
      - type: cart_products
        skus: [A]
  - name: second
    products:
      - sku: A
        price: "12.50"
    assertions:
      - type: cart_products
        skus: [A]
      - type: cart_count
        count: 1
`)

	out, err := execute(t, "run", dir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ reuse/first")
	assert.Contains(t, out, "✓ reuse/second")
	assert.Contains(t, out, "Run Summary: 2 passed, 0 failed, 2 total")
}

func TestRunCommandFailingScenario(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "failing.yaml", failingScenario)

	out, err := execute(t, "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing/too_many")
	assert.Contains(t, out, "cart_count")
	assert.Contains(t, out, "Run Summary: 0 passed, 1 failed, 1 total")
}

func TestRunCommandLoadErrorDoesNotStopOthers(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nvariations: [\n")
	writeScenario(t, dir, "cart.yaml", cartScenario)

	out, err := execute(t, "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
	assert.Contains(t, out, "✓ cart/simple_product")
	assert.Contains(t, out, "Run Summary: 2 passed, 1 failed, 3 total")
}

func TestRunCommandFilter(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "cart.yaml", cartScenario)
	writeScenario(t, dir, "failing.yaml", failingScenario)

	out, err := execute(t, "run", dir, "--filter", "car*")
	require.NoError(t, err, out)
	assert.NotContains(t, out, "failing")

	out, err = execute(t, "run", dir, "--filter", "nothing*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunCommandGoldenUpdateAndCompare(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "cart.yaml", cartScenario)

	out, err := execute(t, "run", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ cart/simple_product (golden updated)")

	goldenPath := filepath.Join(dir, goldenDirName, "cart.simple_product.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"cart"`)
	assert.Contains(t, string(data), `"sku":"A"`)

	// The golden directory is not mistaken for scenarios, and a rerun
	// reproduces the snapshot.
	out, err = execute(t, "run", dir, "--format", "json")
	require.NoError(t, err, out)
	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Variations, 2)
	for _, v := range resp.Data.Variations {
		assert.Equal(t, goldenMatched, v.Golden, v.Variation)
	}

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"data":{},"kind":"cart"}`), 0644))
	out, err = execute(t, "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "cart fixture differs")
}

func TestRunCommandJSONOutput(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "failing.yaml", failingScenario)

	out, err := execute(t, "run", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Variations, 1)

	v := resp.Data.Variations[0]
	assert.Equal(t, "failing", v.Scenario)
	assert.Equal(t, "too_many", v.Variation)
	assert.NotEmpty(t, v.RunID)
	assert.Len(t, v.FixtureHash, 64)
}

func TestRunCommandCustomVariant(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	variants := writeScenario(t, dir, "variants.txt", `variants:
  - name: guest_checkout
    fields:
      - path: checkout/options/guest_checkout
        value: "Yes"
`)
	writeScenario(t, dir, "guest.yaml", `name: guest
description: "Guest checkout on for one run"
variations:
  - name: guest_cart
    products:
      - sku: G
    config_data: guest_checkout
    assertions:
      - type: config_value
        path: checkout/options/guest_checkout
        absent: true
      - type: trace_order
        steps: [setup_configuration, create_products, add_products_to_cart, teardown]
`)

	out, err := execute(t, "run", filepath.Join(dir, "guest.yaml"), "--variants", variants)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ guest/guest_cart")

	out, err = execute(t, "run", filepath.Join(dir, "guest.yaml"))
	require.Error(t, err)
	assert.Contains(t, out, "unknown config variant")
}

func TestRunCommandBackendErrors(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "cart.yaml", cartScenario)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown backend", []string{"--backend", "carrier-pigeon"}, "unknown backend"},
		{"unknown cache", []string{"--cache", "memcached"}, "unknown cache flusher"},
		{"admin cache needs browser", []string{"--cache", CacheAdmin}, "requires --backend browser"},
		{"missing variants file", []string{"--variants", filepath.Join(dir, "missing.yaml")}, "failed to load variants"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"run", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunCommandEnvFile(t *testing.T) {
	testEnvironment(t)
	dir := t.TempDir()
	writeScenario(t, dir, "cart.yaml", cartScenario)

	_, err := execute(t, "run", dir, "--env-file", filepath.Join(dir, "missing.env"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load configuration")

	envFile := filepath.Join(dir, "storecheck.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORECHECK_CACHE_COMMAND=true\n"), 0644))
	out, err := execute(t, "run", dir, "--env-file", envFile, "--cache", CacheCommand)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Run Summary: 2 passed, 0 failed, 2 total")
}
