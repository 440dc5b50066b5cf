package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Port           string
	Environment    string
	AllowedOrigins string
	StorePath      string // JSON file holding the full todo list

	// LLM provider configuration (OpenAI-compatible chat completions)
	LLM LLMConfig
}

// LLMConfig describes the reasoning provider the command resolver talks to.
// Defaults target a local Ollama instance through its OpenAI-compatible API.
type LLMConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	RequestTimeout    time.Duration `yaml:"-"`
	TimeoutSeconds    int           `yaml:"timeout_seconds"`
	MaxToolIterations int           `yaml:"max_tool_iterations"`
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		StorePath:      getEnv("STORE_PATH", "todos.json"),
		LLM: LLMConfig{
			BaseURL:           getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
			APIKey:            getEnv("LLM_API_KEY", "ollama"),
			Model:             getEnv("LLM_MODEL", "llama3.2:latest"),
			TimeoutSeconds:    getIntEnv("LLM_TIMEOUT_SECONDS", 180),
			MaxToolIterations: getIntEnv("MAX_TOOL_ITERATIONS", 10),
		},
	}

	// Optional YAML overlay for provider settings (CONFIG_FILE=todoflow.yaml)
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			// Overlay is best-effort: a broken file must not prevent startup
			fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		}
	}

	cfg.LLM.RequestTimeout = time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	return cfg
}

// fileConfig mirrors the YAML overlay layout
type fileConfig struct {
	Port           string    `yaml:"port"`
	AllowedOrigins string    `yaml:"allowed_origins"`
	StorePath      string    `yaml:"store_path"`
	LLM            LLMConfig `yaml:"llm"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.AllowedOrigins != "" {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.StorePath != "" {
		c.StorePath = fc.StorePath
	}
	if fc.LLM.BaseURL != "" {
		c.LLM.BaseURL = fc.LLM.BaseURL
	}
	if fc.LLM.APIKey != "" {
		c.LLM.APIKey = fc.LLM.APIKey
	}
	if fc.LLM.Model != "" {
		c.LLM.Model = fc.LLM.Model
	}
	if fc.LLM.TimeoutSeconds > 0 {
		c.LLM.TimeoutSeconds = fc.LLM.TimeoutSeconds
	}
	if fc.LLM.MaxToolIterations > 0 {
		c.LLM.MaxToolIterations = fc.LLM.MaxToolIterations
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
