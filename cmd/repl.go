package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/guilhermegouw/siaka/internal/app"
	"github.com/guilhermegouw/siaka/internal/export"
	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/orchestrator"
	"github.com/guilhermegouw/siaka/internal/session"
	"github.com/guilhermegouw/siaka/internal/subject"
)

const replHelp = `Commandes :
  /matiere <nom>   changer de matière (general, maths, sciences, history, literature, code)
  /image <chemin>  joindre une image à la prochaine question
  /nouveau         commencer une nouvelle conversation
  /historique      lister les conversations
  /exporter        enregistrer la conversation dans un fichier
  /aide            afficher cette aide
  /quitter         quitter`

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Chat line by line, without the full-screen interface",
		Long: `Chat in a plain line-oriented prompt with history (arrow keys) and line
editing. Useful over SSH or in terminals the full interface does not support.`,
		RunE: runRepl,
	}
}

func runRepl(cmd *cobra.Command, _ []string) error {
	a, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(a.Config().DataDir(), "repl_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer saveHistory(line, historyFile)

	r := &repl{app: a, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	fmt.Fprintln(r.out, "Bonjour ! Je suis Ds Siaka. Tape ta question, ou /aide.")
	r.printSubject()

	for {
		input, err := line.Prompt("moi> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if !r.handle(cmd, input) {
			return nil
		}
	}
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}

// repl holds the state of one line-mode conversation.
type repl struct {
	app    *app.App
	out    io.Writer
	errOut io.Writer
	images []message.Image
}

// handle runs one input line. It returns false when the student quits.
func (r *repl) handle(cmd *cobra.Command, input string) bool {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		r.send(cmd, input)
		return true
	}

	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	orch := r.app.Orchestrator

	switch name {
	case "/quitter", "/q":
		return false

	case "/aide":
		fmt.Fprintln(r.out, replHelp)

	case "/matiere":
		subj, err := subject.Parse(arg)
		if err != nil {
			fmt.Fprintf(r.errOut, "Matière inconnue : %q\n", arg)
			return true
		}
		if err := orch.SetSubject(r.app.Sessions.ActiveID(), subj); err != nil {
			fmt.Fprintln(r.errOut, err)
			return true
		}
		r.printSubject()

	case "/image":
		img, err := message.ReadImageFile(arg)
		if err != nil {
			fmt.Fprintf(r.errOut, "Image refusée : %v\n", err)
			return true
		}
		r.images = append(r.images, img)
		fmt.Fprintf(r.out, "Image jointe (%d en attente).\n", len(r.images))

	case "/nouveau":
		orch.NewSession()
		r.images = nil
		fmt.Fprintln(r.out, "Nouvelle conversation.")
		r.printSubject()

	case "/historique":
		printSessions(r.out, r.app.Sessions.Snapshot())

	case "/exporter":
		sess, ok := r.app.Sessions.Active()
		if !ok {
			return true
		}
		path, err := export.NewExporter(nil, r.app.Config().ExportDir()).Download(sess)
		if err != nil {
			fmt.Fprintln(r.errOut, err)
			return true
		}
		fmt.Fprintf(r.out, "%s %s\n", export.DownloadedToast, path)

	default:
		fmt.Fprintf(r.errOut, "Commande inconnue : %s (tape /aide)\n", name)
	}
	return true
}

func (r *repl) send(cmd *cobra.Command, text string) {
	fmt.Fprint(r.out, "Ds Siaka> ")
	images := r.images
	r.images = nil
	err := ask(cmd.Context(), r.app, r.app.Sessions.ActiveID(), text, images, r.out, r.errOut)
	if err == nil {
		return
	}
	fmt.Fprintln(r.out)

	// The turn never started: keep the attachments for the next try.
	var preflight *orchestrator.Error
	if errors.As(err, &preflight) || errors.Is(err, session.ErrNotFound) {
		r.images = images
		fmt.Fprintf(r.errOut, "Message non envoyé : %v\n", err)
	}
}

func (r *repl) printSubject() {
	sess, ok := r.app.Sessions.Active()
	if !ok {
		return
	}
	info := sess.Subject.Info()
	fmt.Fprintf(r.out, "Matière : %s %s (%s)\n", info.Icon, info.Name, r.app.ModelID(sess.Subject))
}
