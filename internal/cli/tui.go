package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskonaut/internal/tui"
)

func newTUICmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, o)
		},
	}
}

func runTUI(cmd *cobra.Command, o *options) error {
	return o.withApp(cmd, func(ctx context.Context, a *app) error {
		return tui.Run(ctx, a.engine, a.config)
	})
}
