package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/resload"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	StartedEvery  uint64
	FinishedEvery uint64
	// Optional path redactor, e.g. HashPath. Defaults to the path as is.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	startedCtr  atomic.Uint64
	finishedCtr atomic.Uint64
}

var _ resload.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

// HashPath replaces a path with a short SHA-256 prefix.
func HashPath(p string) string {
	sum := sha256.Sum256([]byte(p))
	return hex.EncodeToString(sum[:8])
}

func (h *Hooks) redact(p string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(p)
	}
	return p
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) LoadStarted(k resload.Key, path string) {
	if h.l == nil || !sample(h.opts.StartedEvery, &h.startedCtr) {
		return
	}
	h.l.Debug("resload.load_started",
		"key", uint64(k),
		"path", h.redact(path))
}

func (h *Hooks) LoadFinished(k resload.Key, path string, size int, took time.Duration) {
	if h.l == nil || !sample(h.opts.FinishedEvery, &h.finishedCtr) {
		return
	}
	h.l.Debug("resload.load_finished",
		"key", uint64(k),
		"path", h.redact(path),
		"size", size,
		"took", took)
}

func (h *Hooks) LoadFailed(k resload.Key, path string, kind resload.ErrorKind, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("resload.load_failed",
		"key", uint64(k),
		"path", h.redact(path),
		"kind", kind.String(),
		"err", err)
}

func (h *Hooks) UnknownKey(k resload.Key) {
	if h.l == nil {
		return
	}
	h.l.Info("resload.unknown_key",
		"key", uint64(k))
}

func (h *Hooks) TerminalOverwrite(k resload.Key) {
	if h.l == nil {
		return
	}
	h.l.Error("resload.terminal_overwrite",
		"key", uint64(k),
		"msg", "write to a terminal entry was refused")
}
