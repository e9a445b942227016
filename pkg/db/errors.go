// pkg/db/errors.go
package db

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the data-access layer. Match them with errors.Is.
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrConnectivity        = errors.New("connectivity error")
	ErrInvalidState        = errors.New("invalid state")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrDataAccess          = errors.New("data access error")
)

// Error describes a failed data-access operation.
// Op is the operation ("resolve", "open", "commit", "call", "insert", ...),
// Target the connection identifier, procedure or table involved.
type Error struct {
	Kind          error
	Op            string
	Target        string
	InTransaction bool
	Err           error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.Target != "" {
		msg += fmt.Sprintf(" %q", e.Target)
	}
	if e.InTransaction {
		msg += " (in transaction)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

var (
	errNoSource          = errors.New("no connection source configured")
	errNoDefault         = errors.New("no default connection designated")
	errUnknownConnection = errors.New("connection identifier not configured")
	errScopeTerminal     = errors.New("transaction scope already completed")
)

func newError(kind error, op, target string, inTx bool, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, InTransaction: inTx, Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
