package consoleerr

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrAuthFailed   = errors.New("authentication failed")
	ErrNetwork      = errors.New("network failure")
	ErrHTTP         = errors.New("http error")
	ErrParse        = errors.New("unparseable response")
	ErrValidation   = errors.New("validation failed")
	ErrSigning      = errors.New("signing failed")
)

// Failure is the error value returned by a dispatch that did not produce a clean
// envelope. Kind is one of the sentinels above and is matched by errors.Is.
type Failure struct {
	Kind    error
	Message string
	Status  int
	// Markup is backend-supplied content to render verbatim, when the backend sent any.
	Markup string
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	if f.Message == "" {
		return f.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Kind
}

func New(kind error, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// ForcesLogout reports whether err must drop the session.
func ForcesLogout(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}
