package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/siaka/internal/export"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Save a conversation as a text file",
		Long: `Save a conversation as a plain-text transcript. Without an id the active
(most recent) conversation is exported. With --share the transcript goes to
the clipboard instead, falling back to a file when no clipboard is available.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringP("dir", "d", "", "Directory to write to (default: export directory from config)")
	cmd.Flags().Bool("share", false, "Copy to the clipboard when possible")
	cmd.Flags().Bool("stdout", false, "Print the transcript instead of writing a file")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	snap := a.Sessions.Snapshot()
	id := snap.ActiveID
	if len(args) == 1 {
		id = args[0]
	}
	sess, err := findSession(snap, id)
	if err != nil {
		return err
	}

	if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
		fmt.Fprint(cmd.OutOrStdout(), export.Render(sess))
		return nil
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = a.Config().ExportDir()
	}
	exporter := export.NewExporter(nil, dir)
	if share, _ := cmd.Flags().GetBool("share"); share {
		exporter.Sharer = export.ClipboardSharer{}
	}

	res, err := exporter.Export(sess)
	if err != nil {
		return err
	}
	if res.Path != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", res.Toast(), res.Path)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), res.Toast())
	}
	return nil
}
