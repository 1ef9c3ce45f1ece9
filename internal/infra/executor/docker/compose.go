package docker

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

// Container-side mount points every tool image agrees on.
const (
	InputMount  = "/input"
	OutputMount = "/output"
)

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Image       string            `yaml:"image"`
	Command     []string          `yaml:"command,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Volumes     []string          `yaml:"volumes"`
}

// Compose renders the compose document for job. Each tool gets the input
// tree read-only and its own output directory read-write.
func Compose(job tools.Job) ([]byte, error) {
	doc := composeFile{Services: make(map[string]composeService, len(job.Tools))}
	for _, spec := range job.Tools {
		env := map[string]string{
			"SOLHYDRA_TOOL":   spec.Name,
			"SOLHYDRA_INPUT":  InputMount,
			"SOLHYDRA_OUTPUT": OutputMount,
		}
		for k, v := range spec.Env {
			env[k] = v
		}
		doc.Services[spec.Name] = composeService{
			Image:       spec.Image,
			Command:     spec.Command,
			Environment: env,
			Volumes: []string{
				fmt.Sprintf("%s:%s:ro", job.InputDir, InputMount),
				fmt.Sprintf("%s:%s", filepath.Join(job.OutputDir, spec.Name), OutputMount),
			},
		}
	}
	return yaml.Marshal(doc)
}

func writeCompose(job tools.Job) error {
	data, err := Compose(job)
	if err != nil {
		return fmt.Errorf("render compose file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(job.ComposeFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(job.ComposeFile, data, 0o644)
}
