package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/foreman/internal/procfile"
)

func newCheckCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the Procfile without starting anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.settings(cmd)
			if err != nil {
				return err
			}
			specs, err := procfile.ParseFile(cfg.Procfile)
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				return fmt.Errorf("no processes defined in %s", cfg.Procfile)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid procfile detected (%s)\n", strings.Join(procfile.Names(specs), ", "))
			return nil
		},
	}
	return cmd
}
