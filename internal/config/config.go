package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	LogConfig  logger.LogConfig `json:"log_config"`
	Database   DatabaseConfig   `json:"database"`
	AI         AIConfig         `json:"ai"`
	Chunking   ChunkingConfig   `json:"chunking"`
	Retrieval  RetrievalConfig  `json:"retrieval"`
	Answer     AnswerConfig     `json:"answer"`
	EmbedCache EmbedCacheConfig `json:"embed_cache"`
	Archive    ArchiveConfig    `json:"archive"`
	CORSAllow  []string         `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type ProviderConfig struct {
	Provider  string      `json:"provider"`
	Data      interface{} `json:"data"`
	ChatModel string      `json:"chat_model"`
}

type AIConfig struct {
	Provider      string          `json:"provider"`
	Data          interface{}     `json:"data"`
	ChatModel     string          `json:"chat_model"`
	EmbedModel    string          `json:"embed_model"`
	Fallback      *ProviderConfig `json:"fallback"`
	Timeout       int             `json:"timeout"`
	MaxTokens     int             `json:"max_tokens"`
	MaxInputChars int             `json:"max_input_chars"`
}

type ChunkingConfig struct {
	MaxWords     int `json:"max_words"`
	OverlapWords int `json:"overlap_words"`
}

type RetrievalConfig struct {
	DefaultTopK int `json:"default_top_k"`
	MaxTopK     int `json:"max_top_k"`
}

type AnswerConfig struct {
	EmptyPolicy     string `json:"empty_policy"`
	CacheSize       int    `json:"cache_size"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`
}

type EmbedCacheConfig struct {
	LRUSize       int    `json:"lru_size"`
	LRUTTLMinutes int    `json:"lru_ttl_minutes"`
	KeepDays      int    `json:"keep_days"`
	CleanupSpec   string `json:"cleanup_spec"`
}

type FileStoreConfig struct {
	Type string   `json:"type"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type ArchiveConfig struct {
	Enabled   bool            `json:"enabled"`
	FileStore FileStoreConfig `json:"file_store"`
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
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.ChatModel == "" {
		return nil, fmt.Errorf("ai.chat_model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 120
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 512
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 4000
	}
	if cfg.Chunking.MaxWords == 0 {
		cfg.Chunking.MaxWords = 200
	}
	if cfg.Chunking.OverlapWords < 0 || cfg.Chunking.OverlapWords >= cfg.Chunking.MaxWords {
		return nil, fmt.Errorf("chunking.overlap_words must be in [0, max_words)")
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 3
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 20
	}
	if cfg.Retrieval.DefaultTopK > cfg.Retrieval.MaxTopK {
		return nil, fmt.Errorf("retrieval.default_top_k must not exceed max_top_k")
	}
	switch cfg.Answer.EmptyPolicy {
	case "":
		cfg.Answer.EmptyPolicy = "refuse"
	case "refuse", "unsupported":
	default:
		return nil, fmt.Errorf("answer.empty_policy must be refuse or unsupported")
	}
	if cfg.Answer.CacheSize == 0 {
		cfg.Answer.CacheSize = 2000
	}
	if cfg.Answer.CacheTTLMinutes == 0 {
		cfg.Answer.CacheTTLMinutes = 60
	}
	if cfg.EmbedCache.LRUSize == 0 {
		cfg.EmbedCache.LRUSize = 10000
	}
	if cfg.EmbedCache.LRUTTLMinutes == 0 {
		cfg.EmbedCache.LRUTTLMinutes = 120
	}
	if cfg.EmbedCache.KeepDays == 0 {
		cfg.EmbedCache.KeepDays = 30
	}
	if cfg.EmbedCache.CleanupSpec == "" {
		cfg.EmbedCache.CleanupSpec = "0 4 * * *"
	}
	if cfg.Archive.Enabled {
		switch cfg.Archive.FileStore.Type {
		case "local":
			if cfg.Archive.FileStore.Dir == "" {
				return nil, fmt.Errorf("archive.file_store.dir is required for local store")
			}
		case "s3":
			s3 := cfg.Archive.FileStore.S3
			if s3.Endpoint == "" || s3.Bucket == "" || s3.SecretID == "" || s3.SecretKey == "" {
				return nil, fmt.Errorf("archive.file_store.s3 endpoint/bucket/secret_id/secret_key are required")
			}
		default:
			return nil, fmt.Errorf("archive.file_store.type must be local or s3")
		}
	}
	return &cfg, nil
}
