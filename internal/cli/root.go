package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/visiongraph/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Visiongraph runs and persists node-graph pipelines",
		Long: `Visiongraph hosts a pipeline of function nodes, exports and imports it as a
nodetree document, and keeps one document per profile on disk.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/visiongraph/config.toml)")
	root.PersistentFlags().StringVar(&c.persistDir, "persist-dir", "", "storage location tried before the built-in ones")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.funcsCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.profileCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.pathsCommand())

	return root
}
