package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/persist"
)

// profileCommand creates the profile command, which prints or switches the
// active profile.
func (c *CLI) profileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [n]",
		Short: "Print or switch the active profile",
		Long: fmt.Sprintf(`Print or switch the active profile.

Each of the profiles %d to %d stores its own nodetree. Without an argument
the active profile is printed. With one it becomes the active profile for
every later command and for the server.`, apperr.MinProfile, apperr.MaxProfile),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store := persist.Open(persist.Options{Override: cfg.PersistDir, Logger: c.Logger})

			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), store.Profile())
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil {
				return apperr.New(apperr.ErrCodeInvalidProfile, "profile %q is not a number", args[0])
			}
			from := store.Profile()
			if err := store.SetProfile(n); err != nil {
				return err
			}
			if !store.Enabled() {
				printWarning("Persistence disabled: the switch lasts for this process only")
				return nil
			}
			printSuccess("Profile %d %s %d", from, iconArrow, n)
			printDetail("Nodetree: %s", persist.NodeTreeFile(n))
			return nil
		},
	}
}
