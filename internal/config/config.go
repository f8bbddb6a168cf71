// Package config loads the tributa API configuration from YAML with
// environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tributa-cloud/tributa/internal/domain/ranking"
)

// Config holds the tributa API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Auth       AuthConfig       `yaml:"auth"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

// Enabled reports whether the vector side is configured at all.
func (e EmbeddingConfig) Enabled() bool {
	return e.APIKey != "" && e.Model != ""
}

// NormalizerConfig holds the optional LLM query normalizer settings.
type NormalizerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RankingConfig holds the score fusion settings.
type RankingConfig struct {
	Weights             WeightsConfig      `yaml:"weights"`
	RecencyHalfLifeDays float64            `yaml:"recency_half_life_days"`
	MinCombinedScore    float64            `yaml:"min_combined_score"`
	Sources             []SourceRuleConfig `yaml:"sources"`
}

// WeightsConfig holds the fusion weights. They must sum to 1.0.
type WeightsConfig struct {
	Lexical   float64 `yaml:"lexical"`
	Vector    float64 `yaml:"vector"`
	Recency   float64 `yaml:"recency"`
	Quality   float64 `yaml:"quality"`
	Authority float64 `yaml:"authority"`
}

// IsZero reports whether no weight was set at all.
func (w WeightsConfig) IsZero() bool {
	return w.Lexical == 0 && w.Vector == 0 && w.Recency == 0 &&
		w.Quality == 0 && w.Authority == 0
}

// SourceRuleConfig maps a source prefix to its authority boost and tier.
type SourceRuleConfig struct {
	Prefix string  `yaml:"prefix"`
	Boost  float64 `yaml:"boost"`
	Tier   int     `yaml:"tier"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24 * 7
	}
	if c.Normalizer.MaxTokens <= 0 {
		c.Normalizer.MaxTokens = 256
	}
	if c.Normalizer.TimeoutSec <= 0 {
		c.Normalizer.TimeoutSec = 5
	}
	if c.Ranking.Weights.IsZero() {
		w := ranking.DefaultWeights()
		c.Ranking.Weights = WeightsConfig{
			Lexical:   w.Lexical(),
			Vector:    w.Vector(),
			Recency:   w.Recency(),
			Quality:   w.Quality(),
			Authority: w.Authority(),
		}
	}
	if c.Ranking.RecencyHalfLifeDays <= 0 {
		c.Ranking.RecencyHalfLifeDays = 180
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Normalizer.Enabled && c.Normalizer.Model == "" {
		return fmt.Errorf("normalizer.model is required when the normalizer is enabled")
	}
	if _, err := c.Ranking.ToDomain(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	return nil
}

// ToDomain builds the immutable domain ranking configuration, validating
// weights, half-life and source rules along the way.
func (r RankingConfig) ToDomain() (*ranking.Config, error) {
	w, err := ranking.NewWeights(
		r.Weights.Lexical, r.Weights.Vector, r.Weights.Recency,
		r.Weights.Quality, r.Weights.Authority,
	)
	if err != nil {
		return nil, err
	}

	rules := make([]ranking.SourceRule, len(r.Sources))
	for i, s := range r.Sources {
		rules[i] = ranking.SourceRule{Prefix: s.Prefix, Boost: s.Boost, Tier: s.Tier}
	}

	return ranking.NewConfig(w, r.RecencyHalfLifeDays, r.MinCombinedScore, rules)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
