package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/variant"
)

// findScenarioFiles expands paths into YAML scenario files. Directories are
// walked recursively; files are taken as given. filter is a glob matched
// against the file name without extension.
func findScenarioFiles(paths []string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if seen[path] || !matchesFilter(path, filter) {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scenario path not found: %s", root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				// Golden snapshots live next to the scenarios.
				if path != root && info.Name() == goldenDirName {
					return filepath.SkipDir
				}
				return nil
			}
			if isScenarioFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, path := range found {
			add(path)
		}
	}

	return files, nil
}

func isScenarioFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

func matchesFilter(path, filter string) bool {
	if filter == "" {
		return true
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	matched, _ := filepath.Match(filter, name)
	return matched
}

// loadedScenario is a scenario file and the result of loading it.
type loadedScenario struct {
	Path     string
	Scenario *scenario.Scenario
	Err      error
}

// loadScenarios loads every file. Load errors are kept per file so one bad
// file does not hide the others.
func loadScenarios(files []string) []loadedScenario {
	out := make([]loadedScenario, 0, len(files))
	for _, path := range files {
		sc, err := scenario.LoadScenario(path)
		out = append(out, loadedScenario{Path: path, Scenario: sc, Err: err})
	}
	return out
}

// loadVariants returns the built-in variants plus those in path, if set.
func loadVariants(path string) (*variant.Registry, error) {
	reg := variant.NewRegistry()
	if path == "" {
		return reg, nil
	}
	if err := reg.LoadFile(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load variants", err)
	}
	return reg, nil
}
