package console

import (
	"context"

	"github.com/dwizi/ops-console/internal/dispatch"
)

type Purpose int

const (
	PurposeCommand Purpose = iota
	PurposeVerify
	PurposeRefresh
)

func (p Purpose) String() string {
	switch p {
	case PurposeCommand:
		return "command"
	case PurposeVerify:
		return "verify"
	case PurposeRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Job is one blocking dispatch. It is safe to run on any goroutine and always
// returns a Result, never panics on backend failure.
type Job func(ctx context.Context) Result

// Result carries a settled Job back to the controller.
type Result struct {
	Purpose    Purpose
	Command    string
	Envelope   dispatch.Envelope
	Err        error
	Generation uint64
}
