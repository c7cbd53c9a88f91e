package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Scan       Scan       `yaml:"scan"`
	Classifier Classifier `yaml:"classifier"`
	Cluster    Cluster    `yaml:"cluster"`
	Organize   Organize   `yaml:"organize"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Env        Env        `yaml:"env"`
	Logging    Logging    `yaml:"logging"`
}

type Scan struct {
	Roots       []string `yaml:"roots"`
	Workers     int      `yaml:"workers"`
	MaxFileSize int64    `yaml:"max_file_size"`
	SkipHidden  bool     `yaml:"skip_hidden"`
	Exclude     []string `yaml:"exclude"`
}

// Classifier selects and configures the classification backend.
// Mode is one of "heuristic", "remote" or "auto".
type Classifier struct {
	Mode           string `yaml:"mode"`
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	OllamaURL      string `yaml:"ollama_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	OpenAIModel    string `yaml:"openai_model"`
	AnthropicModel string `yaml:"anthropic_model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	MaxTokens      int    `yaml:"max_tokens"`
	MaxPromptChars int    `yaml:"max_prompt_chars"`
}

type Cluster struct {
	MinOverlap        int     `yaml:"min_overlap"`
	UseEmbeddings     bool    `yaml:"use_embeddings"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

type Organize struct {
	Destination     string  `yaml:"destination"`
	MinConfidence   float64 `yaml:"min_confidence"`
	LanguageSubdirs bool    `yaml:"language_subdirs"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Env struct {
	Files []string `yaml:"files"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for contentaware.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "contentaware")
}

// DataDir returns the XDG data directory for contentaware.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "contentaware")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/contentaware/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'contentaware init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := parse(nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Scan: Scan{
			Workers:     4,
			MaxFileSize: 5 << 20,
			SkipHidden:  true,
			Exclude:     []string{".git", "node_modules", "__pycache__", ".venv", "venv"},
		},
		Classifier: Classifier{
			Mode:           "auto",
			Provider:       "ollama",
			Model:          "qwen2.5:7b",
			OllamaURL:      "http://localhost:11434",
			EmbeddingModel: "nomic-embed-text",
			OpenAIModel:    "gpt-4o-mini",
			AnthropicModel: "claude-3-5-haiku-latest",
			APIKeyEnv:      "OPENAI_API_KEY",
			MaxTokens:      256,
			MaxPromptChars: 2000,
		},
		Cluster: Cluster{
			MinOverlap:        2,
			DistanceThreshold: 1.2,
		},
		Organize: Organize{
			MinConfidence:   0.3,
			LanguageSubdirs: true,
		},
		Server:  Server{Port: 8000},
		Env:     Env{Files: []string{"~/.env.d/*.env", "~/.env"}},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch strings.ToLower(cfg.Classifier.Mode) {
	case "heuristic", "remote", "auto":
		cfg.Classifier.Mode = strings.ToLower(cfg.Classifier.Mode)
	default:
		return nil, fmt.Errorf("invalid classifier mode %q (want heuristic, remote or auto)", cfg.Classifier.Mode)
	}
	if cfg.Scan.Workers < 1 {
		cfg.Scan.Workers = 1
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return ExpandHome(c.Output.DataDir)
	}
	return DataDir()
}

// ReportsDir is where Markdown and JSON reports are written.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.GetDataDir(), "reports")
}

// BackupsDir is where CSV move logs are written.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.GetDataDir(), "backups")
}

// SiteDir is the default output directory of the static site.
func (c *Config) SiteDir() string {
	return filepath.Join(c.GetDataDir(), "site")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
