package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/resload"
	"github.com/unkn0wn-root/resload/archive/kar"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testGlobals(t *testing.T) *globalFlags {
	t.Helper()
	t.Setenv(resload.EnvRoot, "")
	return &globalFlags{logLevel: "error", envFile: filepath.Join(t.TempDir(), "absent.env")}
}

// fields returns the whitespace-separated columns of the report line for path.
func fields(out, path string) []string {
	for _, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) > 0 && f[0] == path {
			return f
		}
	}
	return nil
}

func TestPackDir(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"shaders/basic.vert": strings.Repeat("gl_Position = pos;\n", 50),
		"a.bin":              "\xde\xad\xbe\xef",
	})
	out := filepath.Join(t.TempDir(), "base.kar")

	n, err := packDir(zap.NewNop(), dir, out, kar.Header{Author: "ci"}, kar.Zstd, 2)
	if err != nil || n != 2 {
		t.Fatalf("packDir n=%d err=%v", n, err)
	}
	a, err := kar.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if names := a.Names(); len(names) != 2 || names[0] != "a.bin" || names[1] != "shaders/basic.vert" {
		t.Fatalf("names = %v", names)
	}
}

func TestFetchReportsStates(t *testing.T) {
	g := testGlobals(t)
	dir := writeTree(t, map[string]string{"a.bin": "\xde\xad\xbe\xef"})

	var out bytes.Buffer
	err := runFetch(&out, g, fetchFlags{root: dir, tick: time.Millisecond, timeout: 5 * time.Second},
		[]string{"a.bin", "missing.bin"})
	if !errors.Is(err, errSomeFailed) {
		t.Fatalf("expected errSomeFailed, got %v", err)
	}

	if f := fields(out.String(), "a.bin"); len(f) != 3 || f[1] != "loaded" || f[2] != "4" {
		t.Fatalf("a.bin line: %v\n%s", f, out.String())
	}
	if f := fields(out.String(), "missing.bin"); len(f) < 2 || f[1] != "error" || !strings.Contains(out.String(), "not found") {
		t.Fatalf("missing.bin line: %v\n%s", f, out.String())
	}
}

func TestFetchFromArchiveThroughCache(t *testing.T) {
	g := testGlobals(t)
	src := writeTree(t, map[string]string{"meshes/cube.obj": "v 0 0 0\nf 1 1 1\n"})
	archive := filepath.Join(t.TempDir(), "base.kar")
	if _, err := packDir(zap.NewNop(), src, archive, kar.Header{}, kar.LZ4, 1); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	f := fetchFlags{
		root:    t.TempDir(),
		tick:    time.Millisecond,
		timeout: 5 * time.Second,
		stats:   true,
		backend: backendFlags{archive: archive, cache: "ristretto"},
	}
	if err := runFetch(&out, g, f, []string{"kar://meshes/cube.obj"}); err != nil {
		t.Fatalf("runFetch: %v\n%s", err, out.String())
	}
	if fl := fields(out.String(), "kar://meshes/cube.obj"); len(fl) != 3 || fl[1] != "loaded" {
		t.Fatalf("report: %s", out.String())
	}
	if fl := fields(out.String(), "cache_misses"); len(fl) != 2 || fl[1] != "1" {
		t.Fatalf("stats: %s", out.String())
	}
	if !strings.Contains(out.String(), `resload_loads_total{result="loaded"}`) {
		t.Fatalf("prometheus stats missing: %s", out.String())
	}
}

func TestFetchRequiresRoot(t *testing.T) {
	g := testGlobals(t)
	os.Unsetenv(resload.EnvRoot)
	err := runFetch(&bytes.Buffer{}, g, fetchFlags{tick: time.Millisecond, timeout: time.Second}, []string{"a.bin"})
	if !errors.Is(err, resload.ErrRootNotSet) {
		t.Fatalf("expected ErrRootNotSet, got %v", err)
	}
}

func TestUnknownCache(t *testing.T) {
	if _, err := newProvider("memcached", 1, nil); err == nil {
		t.Fatalf("expected error for unknown cache")
	}
	if _, err := newProvider("redis", 1, nil); err == nil {
		t.Fatalf("redis cache without a client must fail")
	}
	p, err := newProvider("none", 1, nil)
	if err != nil || p != nil {
		t.Fatalf("none: p=%v err=%v", p, err)
	}
}
