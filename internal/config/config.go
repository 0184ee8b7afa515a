// Package config provides configuration loading and structs for the chishiki pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the pipeline and the query server.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Paths     PathsConfig     `yaml:"paths"`
	VLM       VLMConfig       `yaml:"vlm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

// PathsConfig holds the directories and files each pipeline stage reads and writes.
type PathsConfig struct {
	// PDFDir holds the source PDFs consumed by the extract stage.
	PDFDir string `yaml:"pdf_dir"`
	// ExtractedDir receives one {doc_id}.json block file per PDF.
	ExtractedDir string `yaml:"extracted_dir"`
	// EmbeddingsDir receives the encoder outputs (gob + JSONL).
	EmbeddingsDir string `yaml:"embeddings_dir"`
	// CorpusPath is the JSON array the retrieval engines load.
	CorpusPath string `yaml:"corpus_path"`
	// DatabasePath is the SQLite block catalog.
	DatabasePath string `yaml:"database_path"`
	// KeywordIndexPath is the Bleve index directory.
	KeywordIndexPath string `yaml:"keyword_index_path"`
	// VectorIndexPath persists the flat index and registry between runs ("" = no persistence).
	VectorIndexPath string `yaml:"vector_index_path"`
}

// VLMConfig holds vision-language-model extraction settings.
type VLMConfig struct {
	Model string `yaml:"model"`
	// DPI for page rendering; 300 is needed for reliable table/figure reading.
	DPI int `yaml:"dpi"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	DefaultK int `yaml:"default_k"`
	MaxK     int `yaml:"max_k"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig controls hot-reload of the extracted-JSON directory.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands relative paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Paths.PDFDir = expandPath(cfg.Paths.PDFDir, configDir)
	cfg.Paths.ExtractedDir = expandPath(cfg.Paths.ExtractedDir, configDir)
	cfg.Paths.EmbeddingsDir = expandPath(cfg.Paths.EmbeddingsDir, configDir)
	cfg.Paths.CorpusPath = expandPath(cfg.Paths.CorpusPath, configDir)
	cfg.Paths.DatabasePath = expandPath(cfg.Paths.DatabasePath, configDir)
	cfg.Paths.KeywordIndexPath = expandPath(cfg.Paths.KeywordIndexPath, configDir)
	if cfg.Paths.VectorIndexPath != "" {
		cfg.Paths.VectorIndexPath = expandPath(cfg.Paths.VectorIndexPath, configDir)
	}
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
