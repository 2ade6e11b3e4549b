package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guilhermegouw/siaka/internal/app"
	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/orchestrator"
	"github.com/guilhermegouw/siaka/internal/pubsub"
	"github.com/guilhermegouw/siaka/internal/subject"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the streamed answer",
		Long: `Ask one question without opening the interface. The answer is streamed to
stdout and the exchange is stored as a conversation like any other.

Without arguments the question is read from stdin.`,
		Example: `  siaka ask --subject maths "Résous 2x + 3 = 7"
  siaka ask --image exercice.jpg "Peux-tu m'aider avec cet exercice ?"
  cat consigne.txt | siaka ask --subject literature`,
		RunE: runAsk,
	}

	cmd.Flags().StringP("subject", "s", string(subject.Default), "Subject (general, maths, sciences, history, literature, code)")
	cmd.Flags().StringArrayP("image", "i", nil, "Attach an image (repeatable)")
	cmd.Flags().String("session", "", "Continue an existing conversation instead of starting a new one")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	text, err := questionText(cmd, args)
	if err != nil {
		return err
	}
	paths, _ := cmd.Flags().GetStringArray("image")

	if strings.TrimSpace(text) == "" && len(paths) == 0 {
		return fmt.Errorf("no question given")
	}

	subjFlag, _ := cmd.Flags().GetString("subject")
	subj, err := subject.Parse(subjFlag)
	if err != nil {
		return err
	}

	images := make([]message.Image, 0, len(paths))
	for _, path := range paths {
		img, err := message.ReadImageFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		images = append(images, img)
	}

	a, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// A continued conversation keeps its subject unless --subject is given.
	setSubject := cmd.Flags().Changed("subject")
	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = a.Orchestrator.NewSession().ID
		setSubject = true
	} else {
		sess, err := findSession(a.Sessions.Snapshot(), sessionID)
		if err != nil {
			return err
		}
		sessionID = sess.ID
	}
	if setSubject {
		if err := a.Orchestrator.SetSubject(sessionID, subj); err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}
	}

	return ask(cmd.Context(), a, sessionID, text, images, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// questionText joins the arguments, or reads stdin when there are none.
func questionText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("no question given")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading question: %w", err)
	}
	return string(data), nil
}

// ask runs one turn and prints the answer as it streams.
func ask(ctx context.Context, a *app.App, sessionID, text string, images []message.Image, out, errOut io.Writer) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	turns := a.Hub.Turn.Subscribe(subCtx, pubsub.Lossless())
	done := make(chan struct{})
	go func() {
		defer close(done)
		printTurn(turns, sessionID, out)
	}()

	turn, err := a.Orchestrator.SendTurn(ctx, sessionID, text, images)
	if err != nil {
		cancel()
		<-done
		return err
	}
	<-done

	if turn.Err != nil {
		fmt.Fprintln(errOut, orchestrator.ErrorText(turn.Err))
		return turn.Err
	}
	return nil
}

// printTurn writes the new part of each chunk until the turn of sessionID
// ends.
func printTurn(ch <-chan pubsub.Event[events.TurnEvent], sessionID string, out io.Writer) {
	var printed string
	for ev := range ch {
		p := ev.Payload
		if p.SessionID != sessionID {
			continue
		}
		switch p.Type {
		case events.TurnEventChunk, events.TurnEventCompleted:
			if strings.HasPrefix(p.Text, printed) {
				fmt.Fprint(out, p.Text[len(printed):])
			} else {
				fmt.Fprint(out, "\n"+p.Text)
			}
			printed = p.Text
			if p.Type == events.TurnEventCompleted {
				fmt.Fprintln(out)
				return
			}
		case events.TurnEventFailed:
			if printed != "" {
				fmt.Fprintln(out)
			}
			return
		}
	}
}
