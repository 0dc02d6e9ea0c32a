package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxTokensK        = 200
	defaultCompressThreshold = 0.8
)

type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Config struct {
	LLMClient string `yaml:"llm"`
	Model     string `yaml:"model"`
	// ModelMaxTokensK is the context budget in units of 1024 tokens.
	ModelMaxTokensK   int              `yaml:"model_max_tokens"`
	CompressThreshold float64          `yaml:"compress_threshold"`
	MCPServers        []MCPServer      `yaml:"mcp_servers"`
	AllowedCommands   []string         `yaml:"allowed_commands"`
	FilesystemAccess  FilesystemAccess `yaml:"filesystem_access"`
}

// MaxTokens returns the context budget in tokens.
func (c *Config) MaxTokens() int {
	return c.ModelMaxTokensK * 1024
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence, then applies
// environment overrides.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ModelMaxTokensK:   defaultMaxTokensK,
		CompressThreshold: defaultCompressThreshold,
	}

	// The agent's own state directory is always hidden from its tools.
	cfg.FilesystemAccess.Hidden = append(cfg.FilesystemAccess.Hidden, ".quickstar", ".quickstar/**")

	if home, err := os.UserHomeDir(); err == nil {
		userConfigPath := filepath.Join(home, ".quickstar", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, err
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	projectConfigPath := filepath.Join(wd, ".quickstar", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML, which gives a simple
	// merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODEL_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ModelMaxTokensK = n
		}
	}
	if v := os.Getenv("COMPRESS_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.CompressThreshold = f
		}
	}
}
