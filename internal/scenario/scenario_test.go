package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Sample(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/add_products_to_shopping_cart.yaml")
	require.NoError(t, err)

	assert.Equal(t, "add_products_to_shopping_cart", sc.Name)
	require.Len(t, sc.Variations, 3)

	simple := sc.Variations[0]
	assert.Equal(t, "simple_product", simple.Name)
	require.Len(t, simple.Products, 1)
	assert.Equal(t, "A", simple.Products[0].SKU)
	assert.Empty(t, simple.ConfigData)

	https := sc.Variations[2]
	assert.Equal(t, "enable_https_frontend_admin", https.ConfigData)
	assert.False(t, https.FlushCache)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
variations:
  - name: v
    products: [{type: simple, sku: A}]
`), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "s", sc.Name)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: s\ndescription: d\nvariation: []\n",
			want: "field variation not found",
		},
		{
			name: "missing name",
			yaml: "description: d\nvariations: [{name: v}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: s\nvariations: [{name: v}]\n",
			want: "description is required",
		},
		{
			name: "no variations",
			yaml: "name: s\ndescription: d\n",
			want: "variations list is required",
		},
		{
			name: "duplicate variation",
			yaml: "name: s\ndescription: d\nvariations: [{name: v}, {name: v}]\n",
			want: `duplicate name "v"`,
		},
		{
			name: "unknown product type",
			yaml: "name: s\ndescription: d\nvariations: [{name: v, products: [{type: gadget}]}]\n",
			want: "schema",
		},
		{
			name: "bad price",
			yaml: "name: s\ndescription: d\nvariations: [{name: v, products: [{type: simple, price: cheap}]}]\n",
			want: "schema",
		},
		{
			name: "bad scheme",
			yaml: "name: s\ndescription: d\nvariations: [{name: v, assertions: [{type: env_scheme, scheme: ftp}]}]\n",
			want: "schema",
		},
		{
			name: "unknown assertion",
			yaml: "name: s\ndescription: d\nvariations: [{name: v, assertions: [{type: cart_total}]}]\n",
			want: "schema",
		},
		{
			name: "config_value without path",
			yaml: "name: s\ndescription: d\nvariations: [{name: v, assertions: [{type: config_value, value: x}]}]\n",
			want: "path is required",
		},
		{
			name: "trace_order without steps",
			yaml: "name: s\ndescription: d\nvariations: [{name: v, assertions: [{type: trace_order}]}]\n",
			want: "steps list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateVariation(t *testing.T) {
	err := ValidateVariation(Variation{
		Name: "ok",
		Cart: map[string]any{"items": map[string]any{"coupon": "X"}},
		Assertions: []Assertion{
			{Type: AssertCartCount, Count: 2},
			{Type: AssertConfigValue, Path: "web/secure/use_in_frontend", Value: "No"},
		},
	})
	assert.NoError(t, err)

	err = ValidateVariation(Variation{Name: "bad name!"})
	assert.Error(t, err)
}
