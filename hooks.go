package resload

import "time"

// Hooks are lightweight callbacks for load lifecycle events.
// Implementations MUST be cheap and non-blocking: LoadStarted, LoadFinished
// and LoadFailed run on dispatcher goroutines, UnknownKey runs inside Get.
// Wrap slow sinks with hooks/async.
type Hooks interface {
	// A request was accepted and its load is about to run.
	LoadStarted(key Key, path string)

	// A load finished and Loaded was recorded.
	LoadFinished(key Key, path string, size int, took time.Duration)

	// A load failed and Error(kind) was recorded.
	LoadFailed(key Key, path string, kind ErrorKind, err error)

	// Get was called with a key that is not in the store.
	UnknownKey(key Key)

	// A write to an already terminal entry was refused.
	TerminalOverwrite(key Key)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) LoadStarted(Key, string)                      {}
func (NopHooks) LoadFinished(Key, string, int, time.Duration) {}
func (NopHooks) LoadFailed(Key, string, ErrorKind, error)     {}
func (NopHooks) UnknownKey(Key)                               {}
func (NopHooks) TerminalOverwrite(Key)                        {}
