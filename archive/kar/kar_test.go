package kar

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func build(t *testing.T, c Compression, files map[string][]byte) []byte {
	t.Helper()
	b := NewBuilder(Header{Author: "resload", Created: time.Now().Unix(), Version: 3}, c)
	for name, data := range files {
		if err := b.Add(name, bytes.NewReader(data)); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}
	return buf.Bytes()
}

func mustOpen(t *testing.T, raw []byte) *Archive {
	t.Helper()
	a, err := Open(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return a
}

func sampleFiles() map[string][]byte {
	return map[string][]byte{
		"shaders/basic.vert": []byte(strings.Repeat("gl_Position = mvp * pos;\n", 200)),
		"meshes/cube.obj":    []byte(strings.Repeat("v 1.0 1.0 1.0\n", 500)),
		"tex/noise.bin":      {0x9f, 0x01, 0x77, 0xe3, 0x42}, // incompressible
		"empty.txt":          {},
	}
}

func TestRoundTripAllCompressions(t *testing.T) {
	files := sampleFiles()
	for _, c := range []Compression{None, LZ4, Zstd} {
		t.Run(c.String(), func(t *testing.T) {
			a := mustOpen(t, build(t, c, files))
			if got := len(a.Names()); got != len(files) {
				t.Fatalf("Names len = %d", got)
			}
			for name, want := range files {
				got, err := a.ReadAll(name)
				if err != nil {
					t.Fatalf("ReadAll %s: %v", name, err)
				}
				if !bytes.Equal(got, want) {
					t.Fatalf("%s: content mismatch", name)
				}
			}
			h := a.Header()
			if h.Author != "resload" || h.Version != 3 {
				t.Fatalf("header = %+v", h)
			}
		})
	}
}

func TestCompressionAppliedOnlyWhenItHelps(t *testing.T) {
	a := mustOpen(t, build(t, Zstd, sampleFiles()))

	e, err := a.Stat("meshes/cube.obj")
	if err != nil {
		t.Fatal(err)
	}
	if e.Compression != Zstd || e.Stored >= e.Size {
		t.Fatalf("repetitive entry not compressed: %+v", e)
	}
	e, _ = a.Stat("tex/noise.bin")
	if e.Compression != None || e.Stored != e.Size {
		t.Fatalf("incompressible entry stored compressed: %+v", e)
	}
}

func TestNamesSortedAndDeterministic(t *testing.T) {
	files := sampleFiles()
	fixed := Header{Author: "x", Created: 1700000000}
	write := func() []byte {
		b := NewBuilder(fixed, LZ4)
		for n, d := range files {
			_ = b.Add(n, bytes.NewReader(d))
		}
		var buf bytes.Buffer
		_, _ = b.WriteTo(&buf)
		return buf.Bytes()
	}
	one, two := write(), write()
	if !bytes.Equal(one, two) {
		t.Fatalf("same inputs produced different archives")
	}
	names := mustOpen(t, one).Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestMissingEntryIsNotExist(t *testing.T) {
	a := mustOpen(t, build(t, None, sampleFiles()))
	_, err := a.ReadAll("nope.png")
	if !errors.Is(err, ErrNotExist) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if _, err := a.Stat("nope.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Stat: %v", err)
	}
}

func TestAddRejectsBadAndDuplicateNames(t *testing.T) {
	b := NewBuilder(Header{}, None)
	for _, n := range []string{"", ".", "/abs", "../up", "a//b"} {
		if err := b.Add(n, strings.NewReader("x")); !errors.Is(err, ErrName) {
			t.Fatalf("Add(%q): expected ErrName, got %v", n, err)
		}
	}
	if err := b.Add("a", strings.NewReader("1")); err != nil {
		t.Fatal(err)
	}
	if err := b.Add("a", strings.NewReader("2")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestConcurrentAddAndRead(t *testing.T) {
	b := NewBuilder(Header{}, LZ4)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := strings.Repeat(fmt.Sprintf("line %d\n", i), 64)
			if err := b.Add(fmt.Sprintf("f/%02d", i), strings.NewReader(data)); err != nil {
				t.Errorf("Add: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if b.Len() != 32 {
		t.Fatalf("Len = %d", b.Len())
	}

	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	a := mustOpen(t, buf.Bytes())
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := a.ReadAll(fmt.Sprintf("f/%02d", i))
			if err != nil || !bytes.Equal(got, []byte(strings.Repeat(fmt.Sprintf("line %d\n", i), 64))) {
				t.Errorf("ReadAll %d: err=%v", i, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestOpenRejectsGarbage(t *testing.T) {
	raw := build(t, None, sampleFiles())

	cases := map[string][]byte{
		"short":     raw[:5],
		"magic":     append([]byte("ZIP\x00"), raw[4:]...),
		"truncated": raw[:len(raw)-10],
	}
	for name, b := range cases {
		if _, err := Open(bytes.NewReader(b), int64(len(b))); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	badVer := append([]byte(nil), raw...)
	badVer[4] = formatVersion + 1
	if _, err := Open(bytes.NewReader(badVer), int64(len(badVer))); !errors.Is(err, ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}

	badIndex := append([]byte(nil), raw...)
	badIndex[prefixLen] = 0xff // break CBOR
	if _, err := Open(bytes.NewReader(badIndex), int64(len(badIndex))); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.kar")
	if err := os.WriteFile(path, build(t, Zstd, sampleFiles()), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	got, err := f.ReadAll("shaders/basic.vert")
	if err != nil || !bytes.HasPrefix(got, []byte("gl_Position")) {
		t.Fatalf("ReadAll: %q %v", got, err)
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{None, LZ4, Zstd} {
		got, err := ParseCompression(c.String())
		if err != nil || got != c {
			t.Fatalf("ParseCompression(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Fatalf("expected error")
	}
}
