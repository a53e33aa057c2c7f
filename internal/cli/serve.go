package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visiongraph/internal/program"
	"github.com/matzehuels/visiongraph/internal/server"
)

// serveCommand creates the serve command, which runs the pipeline and the
// HTTP front-end until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline and serve the HTTP API",
		Long: `Run the pipeline and serve the HTTP API.

The active profile's nodetree is restored on start. Execution cycles run
continuously until the process is interrupted. Imports received over HTTP
are saved to the active profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	prog, err := program.New(program.Options{Config: cfg, Logger: c.Logger})
	if err != nil {
		return err
	}
	server.InstallMetrics(prog.Store.Profile())
	if err := prog.Restore(ctx); err != nil {
		c.Logger.Warn("could not restore stored nodetree", "err", err)
	}
	if !prog.Store.Enabled() {
		printWarning("Persistence disabled: no writable storage location")
	}

	printInfo("Serving on %s", StyleHighlight.Render("http://"+cfg.Addr))
	printKeyValue("profile", strconv.Itoa(prog.Store.Profile()))
	printKeyValue("nodes", strconv.Itoa(prog.Pipeline.Len()))
	if root := prog.Store.Root(); root != "" {
		printKeyValue("storage", root)
	}
	return prog.Serve(ctx, server.New(prog, c.Logger))
}
