package browser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/storecheck/internal/config"
)

// Storefront and admin selectors.
const (
	selAddToCart      = "#product-addtocart-button"
	selMessageSuccess = ".page.messages .message-success"
	selMessageError   = ".page.messages .message-error"
	selCartRows       = "#shopping-cart-table tbody.cart.item"
	selCartItemName   = ".product-item-name a"
	selCartItemQty    = "input.qty"

	selAdminUsername = "#username"
	selAdminPassword = "#login"
	selAdminSignIn   = ".action-login"
	selAdminMenu     = "#menu-magento-backend-dashboard"

	selConfigSave  = "#save"
	selProductSave = "#save-button"
	selFlushCache  = "#flush_magento"
	selSpinner     = ".loading-mask"
)

// Product form inputs by product attribute.
var productFormInputs = map[string]string{
	"name":  `input[name="product[name]"]`,
	"sku":   `input[name="product[sku]"]`,
	"price": `input[name="product[price]"]`,
	"qty":   `input[name="product[quantity_and_stock_status][qty]"]`,
}

// ProductURL is the storefront page of a product.
func ProductURL(env config.Environment, urlKey string) string {
	return config.JoinPath(env.FrontendURL, urlKey+".html")
}

// CartURL is the storefront shopping cart page.
func CartURL(env config.Environment) string {
	return config.JoinPath(env.FrontendURL, "checkout/cart/")
}

// AdminURL is an admin route under the backend URL.
func AdminURL(env config.Environment, route string) string {
	return config.JoinPath(env.BackendURL, "admin/"+strings.Trim(route, "/")+"/")
}

// ConfigSectionURL is the "Stores > Configuration" page holding path.
func ConfigSectionURL(env config.Environment, path string) (string, error) {
	section, _, ok := strings.Cut(path, "/")
	if !ok || section == "" {
		return "", fmt.Errorf("config path %q has no section", path)
	}
	return AdminURL(env, "system_config/edit/section/"+section), nil
}

// NewProductURL is the admin form creating a product of the given type in
// the default attribute set.
func NewProductURL(env config.Environment, productType string) string {
	return AdminURL(env, "catalog/product/new/set/4/type/"+productType)
}

// CacheManagementURL is the admin cache management page.
func CacheManagementURL(env config.Environment) string {
	return AdminURL(env, "cache")
}

// FieldSelector is the form control of a configuration path:
// web/secure/use_in_frontend -> #web_secure_use_in_frontend.
func FieldSelector(path string) string {
	return "#" + strings.ReplaceAll(path, "/", "_")
}

// InheritSelector is the "Use system value" checkbox of a configuration
// path.
func InheritSelector(path string) string {
	return FieldSelector(path) + "_inherit"
}

// GroupHeadSelector is the collapsible header of a configuration path's
// group: web/secure/use_in_frontend -> #web_secure-head.
func GroupHeadSelector(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return "#" + strings.ReplaceAll(path[:i], "/", "_") + "-head"
}

var productIDInURL = regexp.MustCompile(`/id/(\d+)/`)

// productIDFromURL extracts the product id from an admin edit URL.
func productIDFromURL(u string) (int64, error) {
	m := productIDInURL.FindStringSubmatch(u)
	if m == nil {
		return 0, fmt.Errorf("no product id in %s", u)
	}
	return strconv.ParseInt(m[1], 10, 64)
}
