package resload

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a terminal Error state.
type ErrorKind uint8

const (
	// NotFound: the resource does not exist or could not be opened.
	NotFound ErrorKind = iota + 1
	// LoadFailed: the resource was found but reading it failed.
	LoadFailed
	// Unknown: Get was called with a key this manager never issued.
	// It is never the outcome of a real load attempt.
	Unknown
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case LoadFailed:
		return "load failed"
	case Unknown:
		return "unknown resource"
	default:
		return fmt.Sprintf("error kind %d", uint8(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case NotFound:
		return ErrNotFound
	case LoadFailed:
		return ErrLoadFailed
	default:
		return ErrUnknownKey
	}
}

var (
	ErrNotFound   = errors.New("resload: resource not found")
	ErrLoadFailed = errors.New("resload: resource load failed")
	ErrUnknownKey = errors.New("resload: unknown resource key")

	// ErrClosed is the cause recorded for requests made after Close.
	ErrClosed = errors.New("resload: manager closed")
	// ErrNotLoaded is returned by Parse for a state that holds no payload.
	ErrNotLoaded = errors.New("resload: resource not loaded")
	// ErrRootNotSet is returned by ConfigFromEnv when no resource root is configured.
	ErrRootNotSet = errors.New("resload: " + EnvRoot + " is not set")
)

// LoadError is the cause recorded in an Error state produced by a real load.
type LoadError struct {
	Key  Key
	Path string
	Kind ErrorKind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (key %d): %s: %v", e.Path, e.Key, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
