package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Variants string
}

// ValidationError is one scenario file that failed to load.
type ValidationError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Scenarios  int               `json:"scenarios"`
	Variations int               `json:"variations"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <scenario-file-or-dir>...",
		Short: "Validate scenario files",
		Long: `Validate scenario files without running them.

Checks YAML structure, the variation schema, assertion parameters and that
every config_data names a known configuration variant.

Exit codes:
  0 - All scenarios valid
  1 - One or more scenarios invalid
  2 - Command error (invalid paths, unreadable variants file)

Example:
  storecheck validate ./scenarios
  storecheck validate ./scenarios --variants ./variants.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Variants, "variants", "", "YAML file with extra configuration variants")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	files, err := findScenarioFiles(paths, "")
	if err != nil {
		return outputValidateError(formatter, ErrCodeLoad, err.Error())
	}
	variants, err := loadVariants(opts.Variants)
	if err != nil {
		return outputValidateError(formatter, ErrCodeLoad, err.Error())
	}

	result := ValidationResult{Valid: true}
	for _, loaded := range loadScenarios(files) {
		formatter.VerboseLog("validating %s", loaded.Path)
		if loaded.Err != nil {
			result.Errors = append(result.Errors, ValidationError{File: loaded.Path, Message: loaded.Err.Error()})
			continue
		}
		result.Scenarios++
		result.Variations += len(loaded.Scenario.Variations)

		for _, v := range loaded.Scenario.Variations {
			if v.ConfigData == "" {
				continue
			}
			if _, err := variants.Lookup(v.ConfigData); err != nil {
				result.Errors = append(result.Errors, ValidationError{
					File:    loaded.Path,
					Message: fmt.Sprintf("variation %q: %v", v.Name, err),
				})
			}
		}
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d scenario(s), %d variation(s) valid\n", result.Scenarios, result.Variations)
	return nil
}

// outputValidateError outputs a command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs invalid scenarios (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: result.Errors[0].Message,
			},
		}
		if err := formatter.Respond(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	w := formatter.Writer
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s\n", filepath.Base(e.File))
		fmt.Fprintf(w, "  %s\n", e.Message)
	}
	fmt.Fprintf(w, "\nValidation failed with %d error(s)\n", len(result.Errors))
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
