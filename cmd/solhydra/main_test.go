package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ParadiseToken/solhydra/internal/application/pipeline"
	"github.com/ParadiseToken/solhydra/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPath, "")
	t.Setenv("OPENAI_API_KEY", "")
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunFlagsRequest(t *testing.T) {
	f := runFlags{project: "/src/app", npm: "/deps/npm", tools: []string{"solhint"}, out: "report"}
	req := f.request()
	mode, err := req.Mode()
	if err != nil || mode != pipeline.ModeProject {
		t.Fatalf("mode: %v %v", mode, err)
	}
	if req.ContractsDir.Present() || req.RepoURL.Present() || req.EthPMDir.Present() {
		t.Errorf("empty flags should be absent: %+v", req)
	}
	if req.NPMDir.Value() != "/deps/npm" || req.Destination != "report" {
		t.Errorf("request: %+v", req)
	}
}

func TestToolsListsDefaults(t *testing.T) {
	out, err := execute(t, "tools")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"NAME", "solhint", "mythril", "markdown", "solgraph"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestToolsHonoursConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.yaml")
	body := "tools:\n  - name: only\n    image: img/only\n    contentType: text\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--config", p, "tools")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "only") || strings.Contains(out, "solhint") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"run", "--out", filepath.Join(dir, "r")}},
		{"two inputs", []string{"run", "--contracts", dir, "--project", dir, "--out", filepath.Join(dir, "r")}},
		{"unknown tool", []string{"run", "--contracts", dir, "--tools", "oyente", "--out", filepath.Join(dir, "r")}},
		{"no destination", []string{"run", "--contracts", dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !errors.Is(err, pipeline.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestRunValidatesBeforeConnecting(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "c.yaml")
	body := "database:\n  driver: mysql\n  host: 127.0.0.1\n  port: 1\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "--config", p, "run", "--contracts", dir, "--tools", "oyente", "--out", filepath.Join(dir, "r"))
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "tools")
	if err == nil {
		t.Fatal("expected error")
	}
}
