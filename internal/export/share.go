package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/session"
)

// Method tells how a transcript reached the student.
type Method string

// Export methods.
const (
	MethodShared     Method = "shared"
	MethodDownloaded Method = "downloaded"
)

// Toasts shown after an export.
const (
	SharedToast     = "Conversation partagée !"
	DownloadedToast = "Fichier téléchargé !"
)

// InviteText is what "Partager l'application" hands out.
const InviteText = "Découvre Ds Siaka, l'IA d'aide aux devoirs créée par Siaka Keita !"

// ErrShareUnavailable is returned by a Sharer that cannot run here.
var ErrShareUnavailable = errors.New("share not available")

// Result describes a finished export.
type Result struct {
	Method Method
	Path   string // set for MethodDownloaded
}

// Toast returns the confirmation message for r.
func (r Result) Toast() string {
	if r.Method == MethodShared {
		return SharedToast
	}
	return DownloadedToast
}

// Sharer is the platform's native share mechanism.
type Sharer interface {
	Share(title, text string) error
}

// ClipboardSharer shares by putting the text on the system clipboard.
type ClipboardSharer struct{}

// Share copies text to the clipboard.
func (ClipboardSharer) Share(_, text string) error {
	if clipboard.Unsupported {
		return ErrShareUnavailable
	}
	return clipboard.WriteAll(text)
}

// Exporter shares transcripts, falling back to writing a file in Dir.
type Exporter struct {
	Sharer Sharer
	Dir    string
}

// NewExporter creates an exporter. sharer may be nil to always write files.
func NewExporter(sharer Sharer, dir string) *Exporter {
	return &Exporter{Sharer: sharer, Dir: dir}
}

// Export renders sess and delivers it.
func (e *Exporter) Export(sess session.Session) (Result, error) {
	text := Render(sess)

	if e.Sharer != nil {
		err := e.Sharer.Share(sess.Title, text)
		if err == nil {
			return Result{Method: MethodShared}, nil
		}
		debug.Event("export", "share_failed", fmt.Sprintf("session=%s err=%v, falling back to file", sess.ID, err))
	}

	path, err := e.Download(sess)
	if err != nil {
		return Result{}, err
	}
	return Result{Method: MethodDownloaded, Path: path}, nil
}

// Download writes the transcript of sess into Dir and returns its path.
func (e *Exporter) Download(sess session.Session) (string, error) {
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(sess.Title))
	if err := os.WriteFile(path, []byte(Render(sess)), 0o644); err != nil { //nolint:gosec // transcripts are meant to be shared
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return path, nil
}
