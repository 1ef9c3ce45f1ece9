package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "SOLHYDRA_CONFIG"

type Config struct {
	Workspace struct {
		Root string `yaml:"root"`
	} `yaml:"workspace"`

	Tools []Tool `yaml:"tools"`

	Transform struct {
		Flatten Command `yaml:"flatten"`
		Combine Command `yaml:"combine"`
	} `yaml:"transform"`

	Orchestrator struct {
		Binary             string `yaml:"binary"`
		ProjectPrefix      string `yaml:"projectPrefix"`
		StopTimeoutSeconds int    `yaml:"stopTimeoutSeconds"`
	} `yaml:"orchestrator"`

	Fetch struct {
		Git string `yaml:"git"`
		NPM string `yaml:"npm"`
	} `yaml:"fetch"`

	Render struct {
		Template string `yaml:"template"`
	} `yaml:"render"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`

		// PresignMinutes > 0 records presigned links instead of object URLs.
		PresignMinutes int `yaml:"presignMinutes"`
	} `yaml:"minio"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | "" (disabled)
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	AI struct {
		APIKey   string `yaml:"apiKey"`
		Model    string `yaml:"model"`
		MaxChars int    `yaml:"maxChars"`
	} `yaml:"ai"`

	Server struct {
		Port           int      `yaml:"port"`
		APIKeys        []string `yaml:"apiKeys"`
		ReportsDir     string   `yaml:"reportsDir"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		RateLimit      struct {
			Capacity        int `yaml:"capacity"`
			RefillPerSecond int `yaml:"refillPerSecond"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`
}

// Tool is one row of the tool table.
type Tool struct {
	Name         string            `yaml:"name"`
	Image        string            `yaml:"image"`
	Command      []string          `yaml:"command"`
	Env          map[string]string `yaml:"env,omitempty"`
	ContentType  string            `yaml:"contentType"`
	OutputSuffix string            `yaml:"outputSuffix,omitempty"`
	Enabled      *bool             `yaml:"enabled,omitempty"`
}

// Command is an external command template. Args may contain {src}, {dest}
// and {deps} placeholders.
type Command struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	c.Workspace.Root = filepath.Join(os.TempDir(), "solhydra")
	c.Tools = defaultTools()

	c.Transform.Flatten = Command{Name: "solhydra-transform", Args: []string{"flatten", "--source", "{src}", "--out", "{dest}", "{deps}"}}
	c.Transform.Combine = Command{Name: "solhydra-transform", Args: []string{"combine", "--source", "{src}", "--out", "{dest}", "{deps}"}}

	c.Orchestrator.Binary = "docker"
	c.Orchestrator.ProjectPrefix = "solhydra"
	c.Orchestrator.StopTimeoutSeconds = 30

	c.Fetch.Git = "git"
	c.Fetch.NPM = "npm"

	c.AI.Model = "gpt-4o-mini"
	c.AI.MaxChars = 2000

	c.Server.Port = 8080
	c.Server.ReportsDir = filepath.Join(os.TempDir(), "solhydra-reports")
	c.Server.RateLimit.Capacity = 10
	c.Server.RateLimit.RefillPerSecond = 1
	return &c
}

func defaultTools() []Tool {
	return []Tool{
		{Name: "solhint", Image: "solhydra/solhint:latest", Command: []string{"/run.sh"}, ContentType: "text"},
		{Name: "solium", Image: "solhydra/solium:latest", Command: []string{"/run.sh"}, ContentType: "text"},
		{Name: "slither", Image: "solhydra/slither:latest", Command: []string{"/run.sh"}, ContentType: "text"},
		{Name: "smartcheck", Image: "solhydra/smartcheck:latest", Command: []string{"/run.sh"}, ContentType: "text"},
		{Name: "mythril", Image: "solhydra/mythril:latest", Command: []string{"/run.sh"}, ContentType: "markdown"},
		{Name: "surya", Image: "solhydra/surya:latest", Command: []string{"/run.sh"}, ContentType: "markdown"},
		{Name: "solgraph", Image: "solhydra/solgraph:latest", Command: []string{"/run.sh"}, ContentType: "image", OutputSuffix: ".png"},
		{Name: "coverage", Image: "solhydra/coverage:latest", Command: []string{"/run.sh"}, ContentType: "html"},
	}
}

// Load overlays the YAML file at path onto Default. A tools list in the file
// replaces the built-in table.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Resolve picks the config file: explicit path, then $SOLHYDRA_CONFIG, else
// defaults only. An explicit path that does not exist is an error.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if p := os.Getenv(EnvPath); p != "" {
		return Load(p)
	}
	cfg := Default()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Registry freezes the enabled rows of the tool table.
func (c *Config) Registry() (tools.Registry, error) {
	specs := make([]tools.Spec, 0, len(c.Tools))
	for _, t := range c.Tools {
		if t.Enabled != nil && !*t.Enabled {
			continue
		}
		ct, err := tools.ParseContentType(t.ContentType)
		if err != nil {
			return tools.Registry{}, fmt.Errorf("tool %q: %w", t.Name, err)
		}
		specs = append(specs, tools.Spec{
			Name:         t.Name,
			Image:        t.Image,
			Command:      t.Command,
			Env:          t.Env,
			ContentType:  ct,
			OutputSuffix: t.OutputSuffix,
		})
	}
	if len(specs) == 0 {
		return tools.Registry{}, errors.New("no enabled tools configured")
	}
	return tools.NewRegistry(specs)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.dbPort(3306),
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.dbPort(5432),
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}

func (c *Config) dbPort(def int) int {
	if c.Database.Port == 0 {
		return def
	}
	return c.Database.Port
}

// MinioEnabled reports whether report archiving is configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.BucketName != ""
}
