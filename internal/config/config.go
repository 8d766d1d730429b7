package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" mapstructure:"serpapi"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Scout     ScoutConfig     `yaml:"scout" mapstructure:"scout"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	VisionModel    string `yaml:"vision_model" mapstructure:"vision_model"`
	ReasoningModel string `yaml:"reasoning_model" mapstructure:"reasoning_model"`
	NarrativeModel string `yaml:"narrative_model" mapstructure:"narrative_model"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Region  string `yaml:"region" mapstructure:"region"`
}

// SerpAPIConfig holds SerpAPI Google Shopping settings.
type SerpAPIConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Country  string `yaml:"country" mapstructure:"country"`
	Currency string `yaml:"currency" mapstructure:"currency"`
}

// PipelineConfig configures the stage graph.
type PipelineConfig struct {
	StageTimeoutSecs    int `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
	CritiqueTimeoutSecs int `yaml:"critique_timeout_secs" mapstructure:"critique_timeout_secs"`
}

// StageTimeout returns the per-stage timeout as a duration.
func (p PipelineConfig) StageTimeout() time.Duration {
	return time.Duration(p.StageTimeoutSecs) * time.Second
}

// CritiqueTimeout returns the critique stage timeout as a duration.
func (p PipelineConfig) CritiqueTimeout() time.Duration {
	return time.Duration(p.CritiqueTimeoutSecs) * time.Second
}

// ScoutConfig configures alternative discovery and enrichment.
type ScoutConfig struct {
	CandidateLimit  int `yaml:"candidate_limit" mapstructure:"candidate_limit"`
	Concurrency     int `yaml:"concurrency" mapstructure:"concurrency"`
	UnitTimeoutSecs int `yaml:"unit_timeout_secs" mapstructure:"unit_timeout_secs"`
	SearchQueries   int `yaml:"search_queries" mapstructure:"search_queries"`
}

// UnitTimeout returns the per-enrichment-unit timeout as a duration.
func (s ScoutConfig) UnitTimeout() time.Duration {
	return time.Duration(s.UnitTimeoutSecs) * time.Second
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "advisor.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.vision_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.reasoning_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.narrative_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.region", "Canada")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.country", "ca")
	v.SetDefault("serpapi.currency", "CAD")
	v.SetDefault("pipeline.stage_timeout_secs", 30)
	v.SetDefault("pipeline.critique_timeout_secs", 20)
	v.SetDefault("scout.candidate_limit", 3)
	v.SetDefault("scout.concurrency", 3)
	v.SetDefault("scout.unit_timeout_secs", 15)
	v.SetDefault("scout.search_queries", 2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
