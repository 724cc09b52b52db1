package testutil

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// Fixture is a parsed txtar archive (see golang.org/x/tools/txtar) keyed by
// file name.
type Fixture struct {
	Comment string
	Files   map[string][]byte
}

func ParseFixture(data []byte) (Fixture, error) {
	if len(data) == 0 {
		return Fixture{}, fmt.Errorf("empty txtar input")
	}

	arc := txtar.Parse(data)
	files := make(map[string][]byte, len(arc.Files))
	for _, f := range arc.Files {
		if _, exists := files[f.Name]; exists {
			return Fixture{}, fmt.Errorf("txtar contains duplicate file name %q", f.Name)
		}
		files[f.Name] = f.Data
	}
	return Fixture{Comment: string(arc.Comment), Files: files}, nil
}

func MustParseFixture(t testing.TB, data []byte) Fixture {
	t.Helper()
	f, err := ParseFixture(data)
	if err != nil {
		t.Fatalf("parse txtar: %v", err)
	}
	return f
}

// MustFile returns the named file, failing the test if it is missing.
func (f Fixture) MustFile(t testing.TB, name string) []byte {
	t.Helper()
	b, ok := f.Files[name]
	if !ok {
		names := make([]string, 0, len(f.Files))
		for n := range f.Files {
			names = append(names, n)
		}
		sort.Strings(names)
		t.Fatalf("txtar missing section %q; have %v", name, names)
	}
	return b
}

// MustText returns the named file as a string without its trailing newline.
// txtar always terminates files with one, golden log lines never end with one.
func (f Fixture) MustText(t testing.TB, name string) string {
	t.Helper()
	return strings.TrimSuffix(string(f.MustFile(t, name)), "\n")
}
