// Package scenario runs storefront cart scenarios.
//
// A scenario creates products, adds each one to the cart through the
// storefront and builds the resulting "cart" fixture. An optional
// configuration variant is applied before the body and reverted in teardown,
// whether or not the body succeeded.
//
// # Scenario Format
//
// Scenarios are YAML files holding one or more variations:
//
//	name: add_products_to_shopping_cart
//	description: "Add products of each type to the cart"
//	variations:
//	  - name: simple_product
//	    products:
//	      - type: simple
//	        sku: A
//	    cart: {}
//	    assertions:
//	      - type: cart_products
//	        skus: [A]
//	  - name: https_frontend_admin
//	    products:
//	      - type: simple
//	    config_data: enable_https_frontend_admin
//	    flush_cache: true
//	    assertions:
//	      - type: env_scheme
//	        scheme: https
//	      - type: config_value
//	        path: web/secure/use_in_frontend
//	        value: "No"
//
// Each variation is also checked against an embedded CUE schema, which
// catches bad product types, prices and assertion shapes before any step
// touches the storefront.
//
// # Assertion Types
//
//   - cart_products: the cart fixture lists exactly these SKUs, in order
//   - cart_count: the storefront cart holds this many units
//   - config_value: a configuration path reads this value after teardown
//   - env_scheme: the run addressed the storefront with this URL scheme
//   - trace_order: these step kinds ran in this order
//
// # Execution
//
// Execute runs the fixed step plan
//
//	setup_configuration -> [secure_base_urls] -> create_products -> add_products_to_cart
//
// through Runner, which resolves each step kind in a step.Registry and
// merges every step's output into the shared step.Context. The environment
// (base URLs) lives in that context, never in process state. Storefronts
// that implement catalog.CartClearer start every variation with an empty
// cart.
//
// Golden snapshots of the cart fixture are compared with goldie:
//
//	go test ./internal/scenario -update
package scenario
