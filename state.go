package resload

import (
	"bytes"
	"fmt"
)

// Phase discriminates the variants of State.
type Phase uint8

const (
	phaseInvalid Phase = iota

	// PhaseLoading: the request was accepted, no result yet.
	PhaseLoading
	// PhaseLoaded: terminal, the payload is available.
	PhaseLoaded
	// PhaseError: terminal, see State.ErrorKind.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "invalid"
	}
}

// State is the load state of one key. It is a closed union of exactly three
// shapes (Loading, Loaded(bytes), Error(kind)) built only through the
// constructors below; the zero State is never handed out by this package.
//
// The payload of a Loaded state is shared with the store. Treat it as
// read-only.
type State struct {
	phase   Phase
	data    []byte
	errKind ErrorKind
	cause   error
}

// Loading returns the non-terminal state written when a request is accepted.
func Loading() State { return State{phase: PhaseLoading} }

// Loaded returns the terminal success state holding b.
func Loaded(b []byte) State { return State{phase: PhaseLoaded, data: b} }

// Failed returns the terminal error state. cause is optional detail and does
// not take part in Equal.
func Failed(kind ErrorKind, cause error) State {
	return State{phase: PhaseError, errKind: kind, cause: cause}
}

func (s State) Phase() Phase { return s.phase }

// IsTerminal reports whether s is Loaded or Error.
func (s State) IsTerminal() bool { return s.phase == PhaseLoaded || s.phase == PhaseError }

// Bytes returns the payload and true for a Loaded state.
func (s State) Bytes() ([]byte, bool) {
	if s.phase != PhaseLoaded {
		return nil, false
	}
	return s.data, true
}

// ErrorKind returns the error kind and true for an Error state.
func (s State) ErrorKind() (ErrorKind, bool) {
	if s.phase != PhaseError {
		return 0, false
	}
	return s.errKind, true
}

// Err returns a non-nil error for an Error state. It matches the kind
// sentinel (ErrNotFound, ErrLoadFailed, ErrUnknownKey) with errors.Is and
// unwraps to the recorded cause.
func (s State) Err() error {
	if s.phase != PhaseError {
		return nil
	}
	return &stateError{kind: s.errKind, cause: s.cause}
}

// Equal reports whether s and o are the same variant with the same payload
// or error kind.
func (s State) Equal(o State) bool {
	if s.phase != o.phase {
		return false
	}
	switch s.phase {
	case PhaseLoaded:
		return bytes.Equal(s.data, o.data)
	case PhaseError:
		return s.errKind == o.errKind
	}
	return true
}

func (s State) String() string {
	switch s.phase {
	case PhaseLoaded:
		return fmt.Sprintf("loaded(%d bytes)", len(s.data))
	case PhaseError:
		return "error(" + s.errKind.String() + ")"
	}
	return s.phase.String()
}

type stateError struct {
	kind  ErrorKind
	cause error
}

func (e *stateError) Error() string {
	if e.cause == nil {
		return "resload: " + e.kind.String()
	}
	return "resload: " + e.kind.String() + ": " + e.cause.Error()
}

func (e *stateError) Unwrap() []error {
	errs := []error{e.kind.sentinel()}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

