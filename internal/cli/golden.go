package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/storecheck/internal/scenario"
)

// goldenDirName is the directory next to a scenario file that holds its cart
// snapshots.
const goldenDirName = "golden"

// Golden comparison outcomes.
const (
	goldenNone    = ""
	goldenMatched = "matched"
	goldenUpdated = "updated"
)

// goldenFilePath returns <scenario dir>/golden/<scenario>.<variation>.golden.
func goldenFilePath(scenarioFile string, res *scenario.Result) string {
	return filepath.Join(filepath.Dir(scenarioFile), goldenDirName, scenario.GoldenName(res)+".golden")
}

// checkGolden compares the cart fixture of res with its snapshot, or
// rewrites the snapshot when update is set. A missing snapshot is not an
// error; neither is a result without a cart, whose failure is already
// reported.
func checkGolden(scenarioFile string, res *scenario.Result, update bool) (string, error) {
	cart := res.Cart()
	if cart == nil {
		return goldenNone, nil
	}
	data, err := cart.Canonical()
	if err != nil {
		return goldenNone, err
	}

	path := goldenFilePath(scenarioFile, res)
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return goldenNone, fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return goldenNone, fmt.Errorf("failed to write golden file: %w", err)
		}
		return goldenUpdated, nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return goldenNone, nil
	}
	if err != nil {
		return goldenNone, fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), data) {
		return goldenNone, fmt.Errorf("cart fixture differs from %s\n  expected: %s\n  actual:   %s",
			path, bytes.TrimSpace(want), data)
	}
	return goldenMatched, nil
}
