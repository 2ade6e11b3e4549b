// Package export turns a session into a plain-text transcript and hands it
// to the student, through the clipboard when possible or as a file.
package export

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/session"
)

// Header is the first line of every transcript.
const Header = "Ds Siaka - Aide aux Devoirs"

// Rule separates the header from the body and the blocks from each other.
const Rule = "-------------------------------"

// DateLayout is the dd/mm/yyyy form used in the header.
const DateLayout = "02/01/2006"

const (
	filenamePrefix = "DsSiaka_"
	filenameExt    = ".txt"
	filenameLimit  = 20
)

// Speaker labels used in the transcript.
const (
	UserLabel  = "Moi"
	ModelLabel = "Ds Siaka"
)

// Render returns the transcript of sess.
func Render(sess session.Session) string {
	var b strings.Builder
	b.WriteString(Header + "\n")
	b.WriteString("Titre: " + sess.Title + "\n")
	b.WriteString("Matière: " + sess.Subject.Name() + "\n")
	b.WriteString("Date: " + sess.CreatedAt.Local().Format(DateLayout) + "\n")
	b.WriteString(Rule + "\n\n")

	for i, m := range sess.Messages {
		if i > 0 {
			b.WriteString("\n" + Rule + "\n\n")
		}
		b.WriteString("[" + label(m.Role) + "]:\n")
		b.WriteString(m.Text + "\n")
	}
	return b.String()
}

func label(r message.Role) string {
	if r == message.RoleUser {
		return UserLabel
	}
	return ModelLabel
}

// Filename returns the download name for a session title: accents are
// folded, anything outside [A-Za-z0-9] becomes an underscore and the result
// is capped at 20 characters.
func Filename(title string) string {
	folded, _, err := transform.String(foldAccents(), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	n := 0
	for _, r := range folded {
		if n == filenameLimit {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return filenamePrefix + b.String() + filenameExt
}

func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
