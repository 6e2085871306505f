package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/step"
)

// StepInfo describes a registered step kind.
type StepInfo struct {
	Kind string `json:"kind"`
}

// VariantInfo describes a registered configuration variant.
type VariantInfo struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	SecureBaseURLs bool              `json:"secure_base_urls,omitempty"`
	Fields         map[string]string `json:"fields"`
}

// NewStepsCommand creates the steps command.
func NewStepsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "steps",
		Short:         "List step kinds",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := step.DefaultRegistry().Kinds()

			if rootOpts.Format == "json" {
				infos := make([]StepInfo, 0, len(kinds))
				for _, k := range kinds {
					infos = append(infos, StepInfo{Kind: string(k)})
				}
				formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return formatter.Success(infos)
			}

			for _, k := range kinds {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

// NewVariantsCommand creates the variants command.
func NewVariantsCommand(rootOpts *RootOptions) *cobra.Command {
	var variantsFile string

	cmd := &cobra.Command{
		Use:   "variants",
		Short: "List configuration variants",
		Long: `List the configuration variants a variation can name in config_data.

Example:
  storecheck variants
  storecheck variants --variants ./variants.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadVariants(variantsFile)
			if err != nil {
				return err
			}

			variants := reg.Variants()
			infos := make([]VariantInfo, 0, len(variants))
			for _, v := range variants {
				info := VariantInfo{
					Name:           v.Name,
					Description:    v.Description,
					SecureBaseURLs: v.SecureBaseURLs,
					Fields:         make(map[string]string, len(v.Fields)),
				}
				for _, f := range v.Fields {
					info.Fields[f.Path] = f.Value
				}
				infos = append(infos, info)
			}

			if rootOpts.Format == "json" {
				formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return formatter.Success(infos)
			}

			w := cmd.OutOrStdout()
			for _, v := range variants {
				fmt.Fprintf(w, "%s\n", v.Name)
				if v.Description != "" {
					fmt.Fprintf(w, "  %s\n", v.Description)
				}
				for _, f := range v.Fields {
					fmt.Fprintf(w, "  %s = %s\n", f.Path, f.Value)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variantsFile, "variants", "", "YAML file with extra configuration variants")

	return cmd
}
