package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/testutil"
	"github.com/roach88/storecheck/internal/variant"
)

var testEnv = config.Environment{
	FrontendURL: "http://shop.test/",
	BackendURL:  "http://shop.test/admin/",
}

type testRig struct {
	shop    *testutil.MemoryShop
	config  *testutil.MemoryConfigStore
	flusher *testutil.CountingFlusher
	h       *Harness
}

// newTestRig builds a harness over in-memory collaborators. The config store
// starts the way a fresh storefront does: secure URLs off.
func newTestRig(t *testing.T) *testRig {
	t.Helper()
	rig := &testRig{
		shop: testutil.NewMemoryShop(),
		config: testutil.NewMemoryConfigStore(map[string]string{
			variant.PathSecureUseInFrontend:  "No",
			variant.PathSecureUseInAdminhtml: "No",
		}),
		flusher: &testutil.CountingFlusher{},
	}
	h, err := New(Options{
		Catalog:    rig.shop,
		Storefront: rig.shop,
		Config:     rig.config,
		Flusher:    rig.flusher,
		IDs:        testutil.NewFixedIDGenerator(""),
	})
	require.NoError(t, err)
	rig.h = h
	return rig
}
