package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskonaut/internal/config"
	"github.com/sadopc/taskonaut/internal/logging"
)

func newConfigCmd(o *options) *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Inspect config.json"}

	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, file, err := o.loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()
			data, err := file.Document().Encode()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	cfg.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of config.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	cfg.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the location of config.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, file, err := o.loadConfig()
			if err != nil {
				return err
			}
			defer logging.Close()
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), file.Path())
			return nil
		},
	})
	return cfg
}
