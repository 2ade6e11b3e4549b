package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/siaka/internal/export"
)

func newShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "Copy an invitation to try Ds Siaka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := export.ClipboardSharer{}.Share("Ds Siaka", export.InviteText)
			if errors.Is(err, export.ErrShareUnavailable) {
				// no clipboard: let the student copy it by hand
				fmt.Fprintln(cmd.OutOrStdout(), export.InviteText)
				return nil
			}
			if err != nil {
				return fmt.Errorf("copying invitation: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Invitation copiée ! "+export.InviteText)
			return nil
		},
	}
}
