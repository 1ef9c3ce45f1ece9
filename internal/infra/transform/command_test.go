package transform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestExpand(t *testing.T) {
	c := Command{Name: "x", Args: []string{"flatten", "--source", "{src}", "--out={dest}", "{deps}"}}

	got := c.Expand("/a", "/b", []string{"/n1", "/n2"})
	want := []string{"flatten", "--source", "/a", "--out=/b", "/n1", "/n2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q want %q", got, want)
	}

	got = c.Expand("/a", "/b", nil)
	if len(got) != 4 {
		t.Errorf("empty deps should vanish, got %q", got)
	}
}

func TestExpandInlineDeps(t *testing.T) {
	c := Command{Args: []string{"--deps={deps}"}}
	got := c.Expand("", "", []string{"a", "b"})
	if len(got) != 1 || got[0] != "--deps=a,b" {
		t.Errorf("got %q", got)
	}
}

func TestCommandTransformer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	dir := t.TempDir()
	dest := filepath.Join(dir, "flatten")
	tr := &CommandTransformer{
		FlattenCmd: Command{Name: "/bin/sh", Args: []string{"-c", "touch {dest}/Token.sol"}},
		CombineCmd: Command{Name: "/bin/sh", Args: []string{"-c", "echo boom >&2; exit 2"}},
	}
	if err := tr.Flatten(context.Background(), dir, dest, nil); err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "Token.sol")); err != nil {
		t.Errorf("flatten output missing: %v", err)
	}

	err := tr.Combine(context.Background(), dir, filepath.Join(dir, "combine"), nil)
	if err == nil || !strings.Contains(err.Error(), "status 2") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("combine error: %v", err)
	}
}

func TestUnconfigured(t *testing.T) {
	tr := &CommandTransformer{}
	if err := tr.Flatten(context.Background(), "", t.TempDir(), nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}
