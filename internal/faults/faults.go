package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide on retry and abort policy
// without string-matching messages.
type Kind string

const (
	Network  Kind = "network"
	Parse    Kind = "parse"
	IO       Kind = "io"
	Security Kind = "security"
	NotFound Kind = "not_found"
	Config   Kind = "config"
)

// Fault carries a Kind alongside the underlying cause. Op names the failing
// operation, e.g. "download mod sodium".
type Fault struct {
	Kind Kind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s error", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// New wraps err as a fault of the given kind. A nil err yields a fault whose
// message is just the op and kind.
func New(kind Kind, op string, err error) error {
	return &Fault{Kind: kind, Op: op, Err: err}
}

// Newf builds a fault from a formatted message with no underlying cause.
func Newf(kind Kind, op string, format string, args ...any) error {
	return &Fault{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost fault in err's chain.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// IsKind reports whether err's chain contains a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Retryable reports whether err may be retried. Only network faults qualify;
// security and config faults in particular are always final.
func Retryable(err error) bool {
	return IsKind(err, Network)
}
