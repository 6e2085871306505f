package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/config"
)

var env = config.Environment{
	FrontendURL: "https://shop.test/",
	BackendURL:  "https://shop.test/admin/",
}

func TestStorefrontURLs(t *testing.T) {
	assert.Equal(t, "https://shop.test/blue-shirt.html", ProductURL(env, "blue-shirt"))
	assert.Equal(t, "https://shop.test/checkout/cart/", CartURL(env))
}

func TestAdminURLs(t *testing.T) {
	u, err := ConfigSectionURL(env, "web/secure/use_in_frontend")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/admin/admin/system_config/edit/section/web/", u)

	_, err = ConfigSectionURL(env, "web")
	assert.Error(t, err)

	assert.Equal(t,
		"https://shop.test/admin/admin/catalog/product/new/set/4/type/virtual/",
		NewProductURL(env, "virtual"))
	assert.Equal(t, "https://shop.test/admin/admin/cache/", CacheManagementURL(env))
}

func TestFieldSelectors(t *testing.T) {
	path := "web/secure/use_in_frontend"
	assert.Equal(t, "#web_secure_use_in_frontend", FieldSelector(path))
	assert.Equal(t, "#web_secure_use_in_frontend_inherit", InheritSelector(path))
	assert.Equal(t, "#web_secure-head", GroupHeadSelector(path))
	assert.Equal(t, "", GroupHeadSelector("web"))
}

func TestProductIDFromURL(t *testing.T) {
	id, err := productIDFromURL("https://shop.test/admin/catalog/product/edit/id/42/back/edit/")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = productIDFromURL("https://shop.test/admin/catalog/product/new/")
	assert.Error(t, err)
}
