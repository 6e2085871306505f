package scenario

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where cart fixture snapshots live, relative to the package
// under test.
const GoldenDir = "testdata/golden"

// GoldenName is the snapshot name of a result: "<scenario>.<variation>".
func GoldenName(res *Result) string {
	return res.Scenario + "." + res.Variation
}

// AssertGolden compares the result's cart fixture against a golden file in
// testdata/golden/<scenario>.<variation>.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertGolden(t *testing.T, res *Result) error {
	t.Helper()

	cart := res.Cart()
	if cart == nil {
		return fmt.Errorf("result %s has no cart fixture", GoldenName(res))
	}
	data, err := cart.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, GoldenName(res), data)
	return nil
}
