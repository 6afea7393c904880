package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

const (
	// DefaultThreshold is the similarity a candidate must strictly
	// exceed to count as a match.
	DefaultThreshold = 0.7

	// DefaultDim is the fallback embedding dimensionality (Facenet).
	DefaultDim = 128

	// DefaultSnapshotPath is where the enrollment snapshot lives when
	// FACEGATE_SNAPSHOT_PATH is not set.
	DefaultSnapshotPath = "students_embeddings.json"
)

type Config struct {
	Snapshot  SnapshotConfig
	Matching  MatchingConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Captures  CaptureConfig
	Models    ModelsConfig
}

type SnapshotConfig struct {
	Path string // JSON snapshot file path (used when Database.URL is empty)
}

type MatchingConfig struct {
	Threshold float64 // strict > comparison; exactly equal is not a match
}

type EmbeddingConfig struct {
	URL   string // embedding sidecar base URL, defaults to http://localhost:8000
	Model string // face model name, defaults to facenet
	Dim   int    // explicit dimensionality override (0 = look up by model)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL for the snapshot backend (optional)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type CaptureConfig struct {
	DatabaseURL string // MariaDB DSN for the capture audit log (optional)
}

type ModelsConfig struct {
	Models map[string]int `yaml:"models"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// Embedded file, should never happen in practice.
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	path := os.Getenv("FACEGATE_SNAPSHOT_PATH")
	if path == "" {
		path = DefaultSnapshotPath
	}

	return &Config{
		Snapshot: SnapshotConfig{
			Path: path,
		},
		Matching: MatchingConfig{
			Threshold: envFloat("FACEGATE_THRESHOLD", DefaultThreshold),
		},
		Embedding: EmbeddingConfig{
			URL:   os.Getenv("EMBEDDING_URL"),
			Model: os.Getenv("EMBEDDING_MODEL"),
			Dim:   envInt("EMBEDDING_DIM", 0),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Captures: CaptureConfig{
			DatabaseURL: os.Getenv("CAPTURE_DATABASE_URL"),
		},
		Models: models,
	}
}

// EmbeddingDim resolves the embedding dimensionality: an explicit
// EMBEDDING_DIM wins, then the embedded per-model table, then DefaultDim.
func (c *Config) EmbeddingDim() int {
	if c.Embedding.Dim > 0 {
		return c.Embedding.Dim
	}
	if dim, ok := c.Models.Models[c.Embedding.Model]; ok {
		return dim
	}
	return DefaultDim
}
