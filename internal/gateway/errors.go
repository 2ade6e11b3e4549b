package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"charm.land/fantasy"
	"google.golang.org/genai"
)

// Kind classifies gateway failures.
type Kind int

// Failure kinds.
const (
	// KindUpstream is any provider failure that is not one of the others.
	KindUpstream Kind = iota
	// KindConfiguration is a missing or rejected credential or model setting.
	KindConfiguration
	// KindRateLimit means the provider asked us to slow down. The user may
	// retry by hand; nothing retries automatically.
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "upstream"
	}
}

// MissingKeyMessage tells the student how to fix a missing credential.
const MissingKeyMessage = "ERREUR CONFIGURATION : Clé API manquante. Vous devez ajouter API_KEY dans vos variables d'environnement."

// Error is a classified gateway failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Unclassified errors count as upstream.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUpstream
}

// IsRateLimit reports whether err is a rate-limit failure.
func IsRateLimit(err error) bool {
	return err != nil && KindOf(err) == KindRateLimit
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return err != nil && KindOf(err) == KindConfiguration
}

// classify maps a provider error onto the gateway taxonomy.
func classify(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}

	var provErr *fantasy.ProviderError
	if errors.As(err, &provErr) {
		return &Error{Kind: kindForStatus(provErr.StatusCode, ""), Message: provErr.Message, Err: err}
	}

	if apiErr, ok := asAPIError(err); ok {
		return &Error{Kind: kindForStatus(apiErr.Code, apiErr.Status), Message: apiErr.Message, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUpstream, Message: "request interrupted", Err: err}
	}

	return &Error{Kind: KindUpstream, Err: err}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

func kindForStatus(code int, status string) Kind {
	switch {
	case code == http.StatusTooManyRequests, strings.EqualFold(status, "RESOURCE_EXHAUSTED"):
		return KindRateLimit
	case code == http.StatusUnauthorized, code == http.StatusForbidden,
		strings.EqualFold(status, "UNAUTHENTICATED"), strings.EqualFold(status, "PERMISSION_DENIED"):
		return KindConfiguration
	default:
		return KindUpstream
	}
}
