// Command visiongraph runs and manages node-graph pipelines.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visiongraph/internal/cli"
	apperr "github.com/matzehuels/visiongraph/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	next := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if next != nil {
			return next(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// exitCode maps error codes to process exit statuses. Invalid input exits
// with 2 so scripts can tell it apart from runtime failures.
func exitCode(err error) int {
	switch apperr.GetCode(err) {
	case apperr.ErrCodeInvalidInput, apperr.ErrCodeInvalidDocument, apperr.ErrCodeInvalidProfile,
		apperr.ErrCodeInvalidNodeID, apperr.ErrCodeImport:
		return 2
	case apperr.ErrCodeUnavailable:
		return 3
	}
	return 1
}
