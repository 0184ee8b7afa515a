package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Paths.PDFDir == "" {
		cfg.Paths.PDFDir = "/usr/local/var/chishiki/data/pdf"
	}
	if cfg.Paths.ExtractedDir == "" {
		cfg.Paths.ExtractedDir = "/usr/local/var/chishiki/data/extracted"
	}
	if cfg.Paths.EmbeddingsDir == "" {
		cfg.Paths.EmbeddingsDir = "/usr/local/var/chishiki/data/embeddings"
	}
	if cfg.Paths.CorpusPath == "" {
		cfg.Paths.CorpusPath = "/usr/local/var/chishiki/data/corpus_text_only.json"
	}
	if cfg.Paths.DatabasePath == "" {
		cfg.Paths.DatabasePath = "/usr/local/var/chishiki/data/db/catalog.db"
	}
	if cfg.Paths.KeywordIndexPath == "" {
		cfg.Paths.KeywordIndexPath = "/usr/local/var/chishiki/data/indices/bleve"
	}
	if cfg.VLM.Model == "" {
		cfg.VLM.Model = "gemini-2.0-flash"
	}
	if cfg.VLM.DPI == 0 {
		cfg.VLM.DPI = 300
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/chishiki/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 5
	}
	if cfg.Search.MaxK == 0 {
		cfg.Search.MaxK = 100
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
}
