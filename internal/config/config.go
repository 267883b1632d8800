package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AIConfig wires the generation backend and the embedder. Provider/Data
// follow the factory-registry convention: Data is passed opaquely to the
// registered provider factory.
type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	Model          string      `json:"model"`
	FallbackModel  string      `json:"fallback_model"`
	EmbedProvider  string      `json:"embed_provider"`
	EmbedData      interface{} `json:"embed_data"`
	EmbedModel     string      `json:"embed_model"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	MaxTokens      int         `json:"max_tokens"`
	Temperature    float32     `json:"temperature"`
	RatePerMinute  int         `json:"rate_per_minute"`
}

type ChunkingConfig struct {
	MaxChars int `json:"max_chars"`
	Overlap  int `json:"overlap"`
	MinChars int `json:"min_chars"`
}

type GenerationConfig struct {
	ContextResults     int     `json:"context_results"`
	CorrectionRetries  int     `json:"correction_retries"`
	BreakerFailures    int     `json:"breaker_failures"`
	SampleSimilarity   float64 `json:"sample_similarity"`
	CrossBatchSim      float64 `json:"cross_batch_similarity"`
	InBatchSim         float64 `json:"in_batch_similarity"`
	ExclusionWindow    int     `json:"exclusion_window"`
	TopicContextCache  int     `json:"topic_context_cache"`
	EmbedCacheSize     int     `json:"embed_cache_size"`
	EmbedCacheTTLHours int     `json:"embed_cache_ttl_hours"`
}

type ScheduleConfig struct {
	IndexPendingSpec string `json:"index_pending_spec"`
	BatchCleanupSpec string `json:"batch_cleanup_spec"`
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
}

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	Database    DatabaseConfig   `json:"database"`
	LogConfig   logger.LogConfig `json:"log_config"`
	FileStore   FileStoreConfig  `json:"file_store"`
	AI          AIConfig         `json:"ai"`
	Chunking    ChunkingConfig   `json:"chunking"`
	Generation  GenerationConfig `json:"generation"`
	Schedule    ScheduleConfig   `json:"schedule"`
	CORSOrigins []string         `json:"cors_origins"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.EmbedData == nil {
		cfg.AI.EmbedData = cfg.AI.Data
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 600
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 4096
	}
	if cfg.AI.Temperature <= 0 {
		cfg.AI.Temperature = 0.7
	}
	applyChunkingDefaults(&cfg.Chunking)
	applyGenerationDefaults(&cfg.Generation)
	applyScheduleDefaults(&cfg.Schedule)
	return &cfg, nil
}

func applyChunkingDefaults(c *ChunkingConfig) {
	if c.MaxChars <= 0 {
		c.MaxChars = 2000
	}
	if c.Overlap <= 0 {
		c.Overlap = 400
	}
	if c.MinChars <= 0 {
		c.MinChars = 50
	}
}

func applyGenerationDefaults(c *GenerationConfig) {
	if c.ContextResults <= 0 {
		c.ContextResults = 5
	}
	if c.CorrectionRetries <= 0 {
		c.CorrectionRetries = 3
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = 5
	}
	if c.SampleSimilarity <= 0 {
		c.SampleSimilarity = 0.6
	}
	if c.CrossBatchSim <= 0 {
		c.CrossBatchSim = 0.7
	}
	if c.InBatchSim <= 0 {
		c.InBatchSim = 0.75
	}
	if c.ExclusionWindow <= 0 {
		c.ExclusionWindow = 5
	}
	if c.TopicContextCache <= 0 {
		c.TopicContextCache = 64
	}
	if c.EmbedCacheSize <= 0 {
		c.EmbedCacheSize = 10000
	}
	if c.EmbedCacheTTLHours <= 0 {
		c.EmbedCacheTTLHours = 24
	}
}

func applyScheduleDefaults(c *ScheduleConfig) {
	if c.IndexPendingSpec == "" {
		c.IndexPendingSpec = "*/5 * * * *"
	}
	if c.BatchCleanupSpec == "" {
		c.BatchCleanupSpec = "30 * * * *"
	}
	if c.CacheCleanupSpec == "" {
		c.CacheCleanupSpec = "0 4 * * *"
	}
}
