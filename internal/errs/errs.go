// Package errs defines the error taxonomy shared by discovery, session and
// navigation code. Every failure that leaves a component carries a Kind so the
// outermost boundary can report it and choose an exit code.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies where in the browse lifecycle an error originated.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDiscovery: no devices found, or scanning itself failed. Fatal before navigation.
	KindDiscovery
	// KindConnect: no usable OBEX service, or the OBEX session could not be established.
	KindConnect
	// KindListing: a directory listing was unreachable or malformed.
	KindListing
	// KindDownload: transport or local I/O failure while saving a file.
	KindDownload
	// KindInput: an invalid menu choice. Recoverable.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindDiscovery:
		return "discovery"
	case KindConnect:
		return "connect"
	case KindListing:
		return "listing"
	case KindDownload:
		return "download"
	case KindInput:
		return "input"
	default:
		return "unknown"
	}
}

var (
	ErrNoDevices     = errors.New("no bluetooth devices found")
	ErrNoOBEXService = errors.New("no OBEX file transfer service found")
)

// Error attaches a Kind and the failing operation to a cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Format prints the cause with its stack for %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s error: %s: %+v", e.Kind, e.Op, e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}

// E wraps err with a kind and operation. A nil err yields nil. A cause
// without a stack trace gets one recorded here.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(interface{ StackTrace() errors.StackTrace }); !ok {
		err = errors.WithStack(err)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindConnect:
		return 2
	case KindListing, KindDownload:
		return 3
	default:
		return 1
	}
}
