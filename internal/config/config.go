// Package config loads l0l1 configuration from an optional YAML file
// overridden by environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an AI backend for completions or embeddings.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderVoyage    Provider = "voyage"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// AI providers
	LLMProvider     Provider `yaml:"llm_provider"`
	LLMModel        string   `yaml:"llm_model"`
	EmbedProvider   Provider `yaml:"embed_provider"`
	EmbedModel      string   `yaml:"embed_model"`
	EmbedDimension  int      `yaml:"embed_dimension"`
	OllamaHost      string   `yaml:"ollama_host"`
	OpenAIAPIKey    string   `yaml:"-"`
	AnthropicAPIKey string   `yaml:"-"`
	VoyageAPIKey    string   `yaml:"-"`
	BedrockRegion   string   `yaml:"bedrock_region"`

	// Every provider call crosses the network and is bounded by this.
	ProviderTimeout time.Duration `yaml:"provider_timeout"`

	// Continuous learning
	EnableLearning    bool    `yaml:"enable_learning"`
	LearningThreshold float64 `yaml:"learning_threshold"`

	// PII detection
	EnablePIIDetection bool `yaml:"enable_pii_detection"`

	// Workspace scoping for the CLI and MCP front-ends
	DefaultWorkspace string `yaml:"default_workspace"`
	WorkspaceFromCWD bool   `yaml:"workspace_from_cwd"`

	// API server
	APIHost   string `yaml:"api_host"`
	APIPort   string `yaml:"api_port"`
	ServerURL string `yaml:"server_url"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration: defaults first, then the YAML file named
// by L0L1_CONFIG if set, then environment variables on top.
func Load() Config {
	cfg := defaults()

	if path := getEnv("L0L1_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			slog.Warn("failed to load config file, using env/defaults", "path", path, "error", err)
		}
	}

	cfg.applyEnv()
	return cfg
}

func defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "l0l1",
		SurrealDBDatabase:  "learning",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider:    ProviderOpenAI,
		LLMModel:       "gpt-4o-mini",
		EmbedProvider:  ProviderOpenAI,
		EmbedModel:     "text-embedding-3-small",
		EmbedDimension: 1536,
		OllamaHost:     "http://localhost:11434",
		BedrockRegion:  "us-east-1",

		ProviderTimeout: 30 * time.Second,

		EnableLearning:    true,
		LearningThreshold: 0.8,

		EnablePIIDetection: true,

		APIHost:   "0.0.0.0",
		APIPort:   "8080",
		ServerURL: "http://localhost:8080",

		LogFile:  "/tmp/l0l1.log",
		LogLevel: slog.LevelInfo,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.SurrealDBURL = getEnv("SURREALDB_URL", c.SurrealDBURL)
	c.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", c.SurrealDBNamespace)
	c.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", c.SurrealDBDatabase)
	c.SurrealDBUser = getEnv("SURREALDB_USER", c.SurrealDBUser)
	c.SurrealDBPass = getEnv("SURREALDB_PASS", c.SurrealDBPass)
	c.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", c.SurrealDBAuthLevel)

	c.LLMProvider = Provider(getEnv("L0L1_AI_PROVIDER", string(c.LLMProvider)))
	c.LLMModel = getEnv("L0L1_COMPLETION_MODEL", c.LLMModel)
	c.EmbedProvider = Provider(getEnv("L0L1_EMBED_PROVIDER", string(c.EmbedProvider)))
	c.EmbedModel = getEnv("L0L1_EMBEDDING_MODEL", c.EmbedModel)
	c.EmbedDimension = getEnvInt("L0L1_EMBEDDING_DIMENSION", c.EmbedDimension)
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.VoyageAPIKey = getEnv("VOYAGE_API_KEY", c.VoyageAPIKey)
	c.BedrockRegion = getEnv("AWS_REGION", c.BedrockRegion)

	if v := getEnv("L0L1_PROVIDER_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ProviderTimeout = d
		}
	}

	c.EnableLearning = getEnvBool("L0L1_ENABLE_LEARNING", c.EnableLearning)
	c.LearningThreshold = getEnvFloat("L0L1_LEARNING_THRESHOLD", c.LearningThreshold)
	c.EnablePIIDetection = getEnvBool("L0L1_ENABLE_PII_DETECTION", c.EnablePIIDetection)

	c.DefaultWorkspace = getEnv("L0L1_DEFAULT_WORKSPACE", c.DefaultWorkspace)
	c.WorkspaceFromCWD = getEnvBool("L0L1_WORKSPACE_FROM_CWD", c.WorkspaceFromCWD)

	c.APIHost = getEnv("L0L1_API_HOST", c.APIHost)
	c.APIPort = getEnv("L0L1_API_PORT", c.APIPort)
	c.ServerURL = getEnv("L0L1_SERVER_URL", c.ServerURL)

	c.LogFile = getEnv("L0L1_LOG_FILE", c.LogFile)
	c.LogLevel = parseLogLevel(getEnv("L0L1_LOG_LEVEL", "INFO"))
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
