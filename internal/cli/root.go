// Package cli is the taskonaut command line. Every subcommand opens the data
// directory, runs one engine operation and flushes before exiting; the
// default command starts the terminal UI.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/clock"
	"github.com/sadopc/taskonaut/internal/engine"
)

const (
	backendJSON   = "json"
	backendSQLite = "sqlite"
)

type options struct {
	dataDir string
	backend string
	verbose bool
	logJSON bool

	// Set by tests.
	clock     clock.Clock
	retry     engine.RetryPolicy
	logStderr *bool
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := &options{}
	return run(ctx, newRootCmd(o), o, os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, o *options, stderr io.Writer) int {
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", apperrors.Message(err))
		if o.verbose {
			fmt.Fprintf(stderr, "  %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskonaut",
		Short:         "Track working time per project and task",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, o)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&o.dataDir, "data-dir", "", "data directory (default $TASKONAUT_HOME or the user config dir)")
	flags.StringVar(&o.backend, "backend", backendJSON, "session storage: json|sqlite")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&o.logJSON, "log-json", false, "write logs as JSON")

	root.AddCommand(
		newTUICmd(o),
		newStartCmd(o),
		newPauseCmd(o),
		newEndDayCmd(o),
		newSwitchCmd(o),
		newStatusCmd(o),
		newSessionsCmd(o),
		newBreakCmd(o),
		newAddCmd(o),
		newNoteCmd(o),
		newCloseCmd(o),
		newDeleteCmd(o),
		newReportCmd(o),
		newProjectCmd(o),
		newTaskCmd(o),
		newRecentCmd(o),
		newConfigCmd(o),
	)
	return root
}
