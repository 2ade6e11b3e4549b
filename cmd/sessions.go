package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/guilhermegouw/siaka/internal/export"
	"github.com/guilhermegouw/siaka/internal/session"
)

const (
	idColumn    = 8
	titleColumn = 34
	subjColumn  = 16
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "history"},
		Short:   "List, show and delete stored conversations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List conversations, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, cleanup, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer cleanup()
				printSessions(cmd.OutOrStdout(), a.Sessions.Snapshot())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a conversation as plain text",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, cleanup, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer cleanup()
				sess, err := findSession(a.Sessions.Snapshot(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), export.Render(sess))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, cleanup, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer cleanup()
				sess, err := findSession(a.Sessions.Snapshot(), args[0])
				if err != nil {
					return err
				}
				if _, err := a.Orchestrator.DeleteSession(sess.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Supprimé : %s\n", sess.Title)
				return nil
			},
		},
	)

	return cmd
}

// findSession resolves a full id or an unambiguous id prefix.
func findSession(snap *session.Snapshot, id string) (session.Session, error) {
	if sess, ok := snap.Find(id); ok {
		return sess, nil
	}
	var matches []session.Session
	for _, sess := range snap.Sessions {
		if strings.HasPrefix(sess.ID, id) {
			matches = append(matches, sess)
		}
	}
	switch len(matches) {
	case 0:
		return session.Session{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return session.Session{}, fmt.Errorf("ambiguous session id %q matches %d sessions", id, len(matches))
	}
}

// printSessions writes one aligned row per session. Titles may hold wide
// characters, so columns are padded by display width.
func printSessions(w io.Writer, snap *session.Snapshot) {
	fmt.Fprintf(w, "  %s  %s  %s  %s  %s\n",
		column("ID", idColumn),
		column("TITRE", titleColumn),
		column("MATIÈRE", subjColumn),
		column("DATE", 16),
		"MSGS",
	)
	for _, sess := range snap.Sessions {
		marker := " "
		if sess.ID == snap.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %s  %s  %s  %d\n",
			marker,
			column(shortID(sess.ID), idColumn),
			column(sess.Title, titleColumn),
			column(sess.Subject.Name(), subjColumn),
			sess.CreatedAt.Local().Format("02/01/2006 15:04"),
			len(sess.Messages),
		)
	}
}

// shortID is the id prefix shown in listings; findSession accepts it back.
func shortID(id string) string {
	if len(id) > idColumn {
		return id[:idColumn]
	}
	return id
}

func column(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
