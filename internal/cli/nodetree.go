package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visiongraph/pkg/nodetree"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output    string
		linksOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active profile's nodetree",
		Long: `Export the active profile's nodetree.

The stored document is imported into a fresh pipeline and exported again,
so the output is the canonical form: unknown settings are dropped, missing
ones filled with defaults and links to absent nodes written as null.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, output, linksOnly)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&linksOnly, "links-only", false, "write inputs as bare links (overrides config)")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, output string, linksOnly bool) error {
	ctx := cmd.Context()
	prog, err := c.openProgram(ctx)
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("links-only") {
		return writeTree(cmd, output, prog.Export(ctx))
	}
	return writeTree(cmd, output, nodetree.Export(ctx, prog.Pipeline, nodetree.Options{LinksOnly: linksOnly}))
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a nodetree into the active profile",
		Long: `Import a nodetree into the active profile.

The document may be JSON or YAML (by .yaml/.yml extension); "-" reads JSON
from stdin. Nodes absent from the document are removed, nodes with a new
type are recreated, and the result is saved to the active profile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readTree(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runImport(cmd.Context(), doc, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "apply to a scratch pipeline without saving")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, doc *nodetree.NodeTree, dryRun bool) error {
	prog, err := c.openProgram(ctx)
	if err != nil {
		return err
	}

	p := newProgress(c.Logger)
	var stats nodetree.Stats
	if dryRun {
		stats, err = nodetree.Import(ctx, prog.Pipeline, doc)
	} else {
		stats, err = prog.Import(ctx, doc)
	}
	var ie *nodetree.ImportError
	if errors.As(err, &ie) {
		printError("Import stopped at node %s (%s)", ie.NodeID, ie.NodeType)
		printDetail("Nodes before it were applied but not saved")
	}
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Imported %d nodes", len(doc.Nodes)))

	if dryRun {
		printInfo("Dry run: nothing saved")
	} else {
		printSuccess("Saved to profile %d", prog.Store.Profile())
	}
	printDetail("%d created · %d deleted · %d settings fallbacks", stats.Created, stats.Deleted, stats.Fallbacks)
	return nil
}

// =============================================================================
// Document I/O
// =============================================================================

func readTree(cmd *cobra.Command, path string) (*nodetree.NodeTree, error) {
	if path == "-" {
		return nodetree.Decode(cmd.InOrStdin())
	}
	return nodetree.ReadFile(path)
}

func writeTree(cmd *cobra.Command, output string, t *nodetree.NodeTree) error {
	var buf bytes.Buffer
	if err := nodetree.Write(t, &buf); err != nil {
		return err
	}
	return writeOutput(cmd, output, buf.Bytes())
}

// writeOutput writes data to the command's stdout, or to output when set.
func writeOutput(cmd *cobra.Command, output string, data []byte) error {
	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Wrote %s", output)
	printFile(output)
	return nil
}
