package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visiongraph/pkg/persist"
)

// pathsCommand creates the paths command, which prints the files the other
// commands read and write.
func (c *CLI) pathsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print configuration and storage locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.resolveConfigPath()
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			candidates := persist.Candidates(cfg.PersistDir)
			root, ok := persist.Resolve(candidates, c.Logger)
			if !ok {
				root = "(persistence disabled)"
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "config      %s\n", path)
			fmt.Fprintf(w, "storage     %s\n", root)
			for _, cand := range candidates {
				fmt.Fprintf(w, "candidate   %s\n", cand)
			}
			return nil
		},
	}
}
