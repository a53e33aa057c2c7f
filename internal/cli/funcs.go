package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visiongraph/pkg/catalog"
	"github.com/matzehuels/visiongraph/pkg/function"
	"github.com/matzehuels/visiongraph/pkg/function/builtin"
	"github.com/matzehuels/visiongraph/pkg/types"
)

// funcsCommand creates the funcs command, which prints the function catalog.
func (c *CLI) funcsCommand() *cobra.Command {
	var (
		output string
		flat   bool
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "funcs",
		Short: "Print the function catalog",
		Long: `Print the function catalog as JSON.

Every function is described with the type descriptors of its settings,
inputs and outputs. Use --list for a one-line-per-function summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := types.NewRegistry()
			cat, err := builtin.Catalog(reg)
			if err != nil {
				return err
			}
			if list {
				printCatalog(cmd, cat)
				return nil
			}

			if !cmd.Flags().Changed("flat") {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				flat = cfg.FlatCatalog
			}
			schema, err := catalog.Export(reg, cat, catalog.Options{Flat: flat})
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, append(data, '\n'))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&flat, "flat", false, "list functions without module grouping")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "print a summary instead of JSON")

	return cmd
}

func printCatalog(cmd *cobra.Command, cat *function.Catalog) {
	w := cmd.OutOrStdout()
	for _, m := range cat.Modules() {
		fmt.Fprintln(w, StyleTitle.Render(m.Package)+" "+StyleDim.Render(m.Version))
		for _, fn := range m.Funcs {
			fmt.Fprintf(w, "  %s %s\n", StyleValue.Render(fn.Type), StyleDim.Render(portSummary(fn)))
		}
	}
}

func portSummary(fn *function.Function) string {
	s := "("
	for i, p := range fn.Inputs {
		if i > 0 {
			s += ", "
		}
		s += p.Name
	}
	s += ") " + iconArrow + " ("
	for i, p := range fn.Outputs {
		if i > 0 {
			s += ", "
		}
		s += p.Name
	}
	return s + ")"
}
