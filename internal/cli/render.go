package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visiongraph/pkg/nodetree"
	"github.com/matzehuels/visiongraph/pkg/render"
	"github.com/matzehuels/visiongraph/pkg/render/nodelink"
)

const defaultPNGScale = 2.0 // PNG pixels per SVG unit

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple outputs)
	formats  []string // output formats: "svg", "pdf", "png", "dot"
	detailed bool     // show settings and constant inputs in node labels
	scale    float64  // PNG scale factor
}

// renderCommand creates the render command for drawing a nodetree as a
// node-link diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: defaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a nodetree as a node-link diagram",
		Long: `Render a nodetree as a node-link diagram.

Without a file the active profile's stored nodetree is rendered. Links to
nodes that are not in the document are drawn as dashed placeholders.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}

			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show settings and constant inputs")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

var validFormats = map[string]bool{"svg": true, "dot": true, "pdf": true, "png": true}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'dot', 'pdf', or 'png')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output has a
// format extension, it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return appName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	t, err := c.loadRenderTree(ctx, input)
	if err != nil {
		return err
	}
	c.Logger.Infof("Loaded nodetree: %d nodes", len(t.Nodes))

	dot := nodelink.ToDOT(t, nodelink.Options{Detailed: opts.detailed})
	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}

		p := newProgress(c.Logger)
		data, err := renderDOT(ctx, dot, format, opts.scale)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		p.done("Rendered " + format)
		printFile(path)
	}
	return nil
}

func (c *CLI) loadRenderTree(ctx context.Context, input string) (*nodetree.NodeTree, error) {
	if input != "" {
		return nodetree.ReadFile(input)
	}
	prog, err := c.openProgram(ctx)
	if err != nil {
		return nil, err
	}
	return prog.Export(ctx), nil
}

func renderDOT(ctx context.Context, dot, format string, scale float64) ([]byte, error) {
	if format == "dot" {
		return []byte(dot), nil
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return nodelink.Render(ctx, dot, f, scale)
}
