package docker

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

func testJob(t *testing.T) tools.Job {
	t.Helper()
	dir := t.TempDir()
	return tools.Job{
		Project:     "solhydra-abc",
		ComposeFile: filepath.Join(dir, "docker-compose.yml"),
		InputDir:    filepath.Join(dir, "input"),
		OutputDir:   filepath.Join(dir, "output"),
		Tools: []tools.Spec{
			{Name: "solhint", Image: "solhydra/solhint:latest", Command: []string{"/run.sh"}, ContentType: tools.ContentText},
			{Name: "mythril", Image: "solhydra/mythril:latest", Env: map[string]string{"TIMEOUT": "60"}, ContentType: tools.ContentMarkdown},
		},
	}
}

func TestCompose(t *testing.T) {
	job := testJob(t)
	data, err := Compose(job)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	var doc composeFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not yaml: %v", err)
	}
	if len(doc.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(doc.Services))
	}

	s := doc.Services["solhint"]
	if s.Image != "solhydra/solhint:latest" {
		t.Errorf("image: %s", s.Image)
	}
	wantIn := job.InputDir + ":/input:ro"
	wantOut := filepath.Join(job.OutputDir, "solhint") + ":/output"
	if len(s.Volumes) != 2 || s.Volumes[0] != wantIn || s.Volumes[1] != wantOut {
		t.Errorf("volumes: %v", s.Volumes)
	}
	if s.Environment["SOLHYDRA_TOOL"] != "solhint" {
		t.Errorf("env: %v", s.Environment)
	}
	if doc.Services["mythril"].Environment["TIMEOUT"] != "60" {
		t.Errorf("tool env not carried: %v", doc.Services["mythril"].Environment)
	}
}

// fakeDocker installs a shell script standing in for the docker CLI. It
// records its arguments and exits with code.
func fakeDocker(t *testing.T, code string) (bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}
	dir := t.TempDir()
	bin = filepath.Join(dir, "docker")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\necho \"$@\" >> " + argsFile + "\nexit " + code + "\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, argsFile
}

func TestRunReportsExitCode(t *testing.T) {
	bin, argsFile := fakeDocker(t, "3")
	job := testJob(t)
	code, err := NewRunner(bin, nil).Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code: got %d want 3", code)
	}
	if _, err := os.Stat(job.ComposeFile); err != nil {
		t.Errorf("compose file not written: %v", err)
	}
	args, _ := os.ReadFile(argsFile)
	if !strings.Contains(string(args), "compose -p solhydra-abc -f "+job.ComposeFile+" up --no-color solhint mythril") {
		t.Errorf("args: %s", args)
	}
}

func TestStop(t *testing.T) {
	bin, argsFile := fakeDocker(t, "0")
	job := testJob(t)
	if err := NewRunner(bin, nil).Stop(context.Background(), job); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	args, _ := os.ReadFile(argsFile)
	if !strings.Contains(string(args), "down --remove-orphans") {
		t.Errorf("args: %s", args)
	}
}

func TestRunMissingBinary(t *testing.T) {
	job := testJob(t)
	if _, err := NewRunner(filepath.Join(t.TempDir(), "nope"), nil).Run(context.Background(), job); err == nil {
		t.Fatal("expected error when the docker binary is missing")
	}
}

func TestParseExitCodes(t *testing.T) {
	codes, err := parseExitCodes([]byte("solhint 0\nmythril 2\n\n"))
	if err != nil {
		t.Fatal(err)
	}
	if codes["solhint"] != 0 || codes["mythril"] != 2 {
		t.Errorf("codes: %v", codes)
	}
	if _, err := parseExitCodes([]byte("solhint x")); err == nil {
		t.Error("expected error for non-numeric code")
	}
}

func TestRunUsesServiceExitCodes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "docker")
	script := "#!/bin/sh\ncase \"$*\" in\n*\" ps \"*) echo 'solhint 0'; echo 'mythril 4' ;;\nesac\nexit 0\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	code, err := NewRunner(bin, nil).Run(context.Background(), testJob(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 4 {
		t.Errorf("exit code: got %d want 4", code)
	}
}
