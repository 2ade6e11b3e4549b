package orchestrator

import (
	"errors"
	"strings"

	"github.com/guilhermegouw/siaka/internal/gateway"
)

// Error is a turn that could not start.
type Error struct {
	message string
}

// NewError creates a new orchestrator error.
func NewError(message string) *Error {
	return &Error{message: message}
}

func (e *Error) Error() string {
	return e.message
}

// ErrEmptyTurn is returned when there is neither text nor an image to send.
var ErrEmptyTurn = NewError("nothing to send")

// ErrBusy is returned while another turn is streaming.
var ErrBusy = NewError("a turn is already in progress")

// User-facing texts written into a failed answer.
const (
	GenericErrorText   = "Désolé, j'ai rencontré une erreur. Veuillez vérifier votre connexion."
	RateLimitErrorText = "Trop de demandes pour le moment. Patiente quelques instants puis réessaie."
	RejectedKeyText    = "ERREUR CONFIGURATION : Clé API refusée. Vérifie ta clé avec « siaka config set-key »."
)

// ErrorText returns what the student sees in place of an answer that
// failed with err.
func ErrorText(err error) string {
	var gwErr *gateway.Error
	errors.As(err, &gwErr)

	switch gateway.KindOf(err) {
	case gateway.KindRateLimit:
		return RateLimitErrorText
	case gateway.KindConfiguration:
		if gwErr != nil && strings.HasPrefix(gwErr.Message, "ERREUR CONFIGURATION") {
			return gwErr.Message
		}
		return RejectedKeyText
	default:
		if gwErr != nil && gwErr.Message != "" {
			return GenericErrorText + "\n\n(" + gwErr.Message + ")"
		}
		return GenericErrorText
	}
}
