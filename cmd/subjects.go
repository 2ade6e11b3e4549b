package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/siaka/internal/subject"
)

func newSubjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the subjects and the model tier each one uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, s := range subject.All() {
				info := s.Info()
				fmt.Fprintf(out, "%s %s  %s  [%s]\n", info.Icon, column(string(s), 10), column(info.Name, 16), s.Tier())
				fmt.Fprintf(out, "   %s\n", info.Description)
			}
			return nil
		},
	}
}
