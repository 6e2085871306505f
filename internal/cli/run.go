package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/cache"
	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/store"
	"github.com/roach88/storecheck/internal/variant"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend  string // sqlite | browser
	Database string // SQLite run log; empty disables recording
	Cache    string // none | command | redis | admin
	Variants string // extra configuration variants (YAML)
	Filter   string // scenario filter (glob pattern)
	Update   bool   // regenerate golden files

	// IDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs scenario.IDGenerator
}

// VariationResult is the outcome of one variation as reported by the CLI.
type VariationResult struct {
	Scenario    string   `json:"scenario"`
	Variation   string   `json:"variation,omitempty"`
	RunID       string   `json:"run_id,omitempty"`
	Pass        bool     `json:"pass"`
	Golden      string   `json:"golden,omitempty"`
	FixtureHash string   `json:"fixture_hash,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// RunResult holds the overall run result.
type RunResult struct {
	Variations []VariationResult `json:"variations"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Total      int               `json:"total"`
}

func (r *RunResult) add(v VariationResult) {
	r.Variations = append(r.Variations, v)
	r.Total++
	if v.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file-or-dir>...",
		Short: "Run cart scenarios",
		Long: `Run scenario variations against a storefront.

The sqlite backend runs each variation against a fresh in-memory SQLite
storefront. The browser backend drives the storefront and admin at
STORECHECK_FRONTEND_URL and STORECHECK_BACKEND_URL with Chromium. With --db,
every variation is recorded in a SQLite run log (see "storecheck history").

Cart fixtures are compared with golden files in a golden/ directory next
to each scenario file, when one exists.

Exit codes:
  0 - All variations passed
  1 - One or more variations failed
  2 - Command error (invalid paths, unreachable storefront, etc.)

Examples:
  storecheck run ./scenarios
  storecheck run ./scenarios --filter "add_*" --update
  storecheck run ./scenarios --db ./runs.db --format json
  storecheck run ./scenarios --backend browser --cache redis --env-file .env`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", BackendSQLite, "storefront backend (sqlite|browser)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log")
	cmd.Flags().StringVar(&opts.Cache, "cache", CacheNone, "cache flusher (none|command|redis|admin)")
	cmd.Flags().StringVar(&opts.Variants, "variants", "", "YAML file with extra configuration variants")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := opts.logger(cmd.ErrOrStderr())

	settings, err := opts.settings()
	if err != nil {
		return err
	}

	files, err := findScenarioFiles(paths, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(files) == 0 {
		if opts.Format == "json" {
			return outputRunJSON(formatter, RunResult{Variations: []VariationResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	variants, err := loadVariants(opts.Variants)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, opts, settings, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			logger.Warn("failed to close backend", "error", cerr)
		}
	}()

	flusher, err := b.openFlusher(ctx, opts.Cache, settings)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open cache flusher", err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = scenario.UUIDv7Generator{}
	}

	result := RunResult{Variations: []VariationResult{}}
	for _, loaded := range loadScenarios(files) {
		if loaded.Err != nil {
			vr := VariationResult{
				Scenario: filepath.Base(loaded.Path),
				Errors:   []string{fmt.Sprintf("failed to load scenario: %v", loaded.Err)},
			}
			printVariation(opts, formatter.Writer, vr)
			result.add(vr)
			continue
		}

		formatter.VerboseLog("running %s (%d variations) against %s",
			loaded.Scenario.Name, len(loaded.Scenario.Variations), settings.Env.FrontendURL)
		results, runErr := runScenario(ctx, b, flusher, variants, ids, settings, loaded.Scenario, logger)
		for _, res := range results {
			vr := reportVariation(ctx, opts, b.runLog, loaded.Path, res, logger)
			printVariation(opts, formatter.Writer, vr)
			result.add(vr)
		}
		if runErr != nil {
			if opts.Format == "json" {
				_ = outputRunJSON(formatter, result)
			}
			if ctx.Err() != nil {
				return WrapExitError(ExitFailure, "run interrupted", runErr)
			}
			return WrapExitError(ExitCommandError, "failed to run "+loaded.Scenario.Name, runErr)
		}
	}

	if opts.Format == "json" {
		return outputRunJSON(formatter, result)
	}
	return outputRunText(formatter.Writer, result)
}

// runScenario runs every variation of sc in order, each against a storefront
// opened for that variation. It stops early only when ctx is done.
func runScenario(ctx context.Context, b *backend, flusher cache.Flusher, variants *variant.Registry,
	ids scenario.IDGenerator, settings *config.Settings, sc *scenario.Scenario, logger *slog.Logger) ([]*scenario.Result, error) {
	results := make([]*scenario.Result, 0, len(sc.Variations))
	for _, v := range sc.Variations {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := runVariation(ctx, b, flusher, variants, ids, settings, sc.Name, v, logger)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func runVariation(ctx context.Context, b *backend, flusher cache.Flusher, variants *variant.Registry,
	ids scenario.IDGenerator, settings *config.Settings, scenarioName string, v scenario.Variation, logger *slog.Logger) (*scenario.Result, error) {
	sf, err := b.open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sf.close(); cerr != nil {
			logger.Warn("failed to close storefront", "scenario", scenarioName, "variation", v.Name, "error", cerr)
		}
	}()

	h, err := scenario.New(scenario.Options{
		Catalog:    sf.catalog,
		Storefront: sf.storefront,
		Config:     sf.config,
		Flusher:    flusher,
		Variants:   variants,
		IDs:        ids,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return h.RunVariation(ctx, scenarioName, settings.Env, v), nil
}

// reportVariation checks the golden snapshot of res and records it in the
// run log, if there is one.
func reportVariation(ctx context.Context, opts *RunOptions, runLog *store.Store, scenarioFile string, res *scenario.Result, logger *slog.Logger) VariationResult {
	status, gerr := checkGolden(scenarioFile, res, opts.Update)
	if gerr != nil {
		res.AddError(fmt.Sprintf("golden: %v", gerr))
	}

	vr := VariationResult{
		Scenario:  res.Scenario,
		Variation: res.Variation,
		RunID:     res.RunID,
		Pass:      res.Pass,
		Golden:    status,
		Errors:    res.Errors,
	}
	if cart := res.Cart(); cart != nil {
		hash, err := cart.Hash()
		if err != nil {
			logger.Warn("failed to hash cart fixture", "run_id", res.RunID, "error", err)
		}
		vr.FixtureHash = hash
	}

	if runLog != nil {
		// Recording outlives an interrupt so the log reflects what ran.
		seq, err := runLog.RecordRun(context.WithoutCancel(ctx), toRunRecord(res, vr.FixtureHash))
		if err != nil {
			logger.Warn("failed to record run", "run_id", res.RunID, "error", err)
		} else {
			logger.Debug("run recorded", "run_id", res.RunID, "seq", seq)
		}
	}
	return vr
}

// toRunRecord converts a result into its run log row.
func toRunRecord(res *scenario.Result, fixtureHash string) store.RunRecord {
	steps := make([]store.StepRecord, 0, len(res.Trace))
	for _, ev := range res.Trace {
		steps = append(steps, store.StepRecord{Seq: ev.Seq, Kind: ev.Kind, Error: ev.Error})
	}
	return store.RunRecord{
		ID:          res.RunID,
		Scenario:    res.Scenario,
		Variation:   res.Variation,
		Pass:        res.Pass,
		Errors:      res.Errors,
		FixtureHash: fixtureHash,
		Steps:       steps,
	}
}

// printVariation writes one pass/fail line in text mode.
func printVariation(opts *RunOptions, w io.Writer, vr VariationResult) {
	if opts.Format == "json" {
		return
	}
	name := vr.Scenario
	if vr.Variation != "" {
		name += "/" + vr.Variation
	}
	if !vr.Pass {
		fmt.Fprintf(w, "✗ %s\n", name)
		for _, e := range vr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if vr.Golden == goldenUpdated {
		fmt.Fprintf(w, "✓ %s (golden updated)\n", name)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", name)
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(formatter *OutputFormatter, result RunResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeFailed,
			Message: fmt.Sprintf("%d variation(s) failed", result.Failed),
		}
	}
	if err := formatter.Respond(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d variation(s) failed", result.Failed))
	}
	return nil
}

// outputRunText outputs the run summary as text.
func outputRunText(w io.Writer, result RunResult) error {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d variation(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All variations passed")
	return nil
}
