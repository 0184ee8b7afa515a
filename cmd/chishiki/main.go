// Package main is the chishiki CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/chishiki/internal/cli"
	"github.com/hyperjump/chishiki/internal/config"
	"github.com/hyperjump/chishiki/internal/corpus"
	"github.com/hyperjump/chishiki/internal/embedding"
	"github.com/hyperjump/chishiki/internal/encoder"
	"github.com/hyperjump/chishiki/internal/extract"
	"github.com/hyperjump/chishiki/internal/keyword"
	"github.com/hyperjump/chishiki/internal/models"
	"github.com/hyperjump/chishiki/internal/nouns"
	"github.com/hyperjump/chishiki/internal/search"
	"github.com/hyperjump/chishiki/internal/server"
	"github.com/hyperjump/chishiki/internal/storage"
	"github.com/hyperjump/chishiki/internal/vector"
	"github.com/hyperjump/chishiki/internal/vlm"
	"github.com/hyperjump/chishiki/internal/watcher"
	"github.com/hyperjump/chishiki/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/chishiki/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "extract":
		runExtract()
	case "encode":
		runEncode()
	case "convert":
		runConvert()
	case "search":
		runSearch()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("chishiki version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func newLoggerOrExit(cfg *config.Config, debug bool) *zap.Logger {
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	textOnly := fs.Bool("text-only", false, "extract plain text without the vision model")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLoggerOrExit(cfg, *debug)
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath))

	catalog, err := storage.NewCatalog(cfg.Paths.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open block catalog", zap.Error(err))
	}
	defer catalog.Close()

	ctx, cancel := signalContext()
	defer cancel()

	opts := []extract.RunnerOption{
		extract.WithRunnerLogger(logger),
		extract.WithCatalog(catalog),
	}

	if *textOnly {
		runner := extract.NewRunner(cfg, nil, opts...)
		stats, err := runner.RunTextOnly(ctx)
		if err != nil {
			logger.Fatal("Extraction failed", zap.Error(err))
		}
		printExtractStats(stats)
		return
	}

	extractor, err := vlm.NewGenAIExtractor(ctx, cfg.VLM.Model)
	if err != nil {
		logger.Fatal("Failed to create model client (set GEMINI_API_KEY, or use --text-only)", zap.Error(err))
	}
	defer extractor.Close()

	runner := extract.NewRunner(cfg, extractor, opts...)
	stats, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("Extraction failed", zap.Error(err))
	}
	printExtractStats(stats)
}

func printExtractStats(stats extract.Stats) {
	fmt.Printf("documents: %d  skipped: %d  failed: %d  pages: %d  blocks: %d\n",
		stats.Documents, stats.Skipped, stats.Failed, stats.Pages, stats.Blocks)
}

func runEncode() {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLoggerOrExit(cfg, *debug)
	defer logger.Sync()

	embedder := newEmbedder(cfg, logger)
	defer embedder.Close()

	ctx, cancel := signalContext()
	defer cancel()

	enc := encoder.New(embedder, cfg.Embedding.BatchSize, encoder.WithLogger(logger))
	stats, err := enc.Run(ctx, cfg.Paths.ExtractedDir, cfg.Paths.EmbeddingsDir)
	if err != nil {
		logger.Fatal("Encoding failed", zap.Error(err))
	}
	fmt.Printf("files: %d  skipped: %d  records: %d\n", stats.Files, stats.Skipped, stats.Records)
}

func runConvert() {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "", "output JSON path (default: corpus path from config)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: chishiki convert [flags] <input.jsonl>")
		os.Exit(1)
	}
	inputPath := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLoggerOrExit(cfg, *debug)
	defer logger.Sync()

	outputPath := *output
	if outputPath == "" {
		outputPath = cfg.Paths.CorpusPath
	}

	count, err := corpus.ConvertJSONLToJSON(inputPath, outputPath, logger)
	if err != nil {
		logger.Fatal("Conversion failed", zap.Error(err))
	}
	fmt.Printf("Converted %d records to %s\n", count, outputPath)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = search in-process)")
	k := fs.Int("k", 5, "number of results")
	mode := fs.String("mode", models.ModeSemantic, "search mode: semantic, nouns, or keyword")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: chishiki search [flags] <query>")
		os.Exit(1)
	}
	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryStr == "" {
		fmt.Println("Usage: chishiki search [flags] <query>")
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	req := &models.SearchRequest{Query: queryStr, K: *k, Mode: *mode}

	if *serverURL != "" {
		resp, err := searchViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLoggerOrExit(cfg, false)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	resp, err := components.Searcher.Search(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLoggerOrExit(cfg, *debug)
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		w := watcher.New(cfg.Paths.ExtractedDir, components.Vectors, logger)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(components.Searcher, components.Catalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Paths.VectorIndexPath != "" {
		if err := components.Vectors.Save(cfg.Paths.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed",
				zap.String("path", cfg.Paths.VectorIndexPath), zap.Error(err))
		}
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read state in-process)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := newLoggerOrExit(cfg, false)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	counts, err := components.Catalog.GetCounts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalog counts failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("documents:          %d\n", counts.Documents)
	fmt.Printf("blocks:             %d\n", counts.Blocks)
	fmt.Printf("parse_errors:       %d\n", counts.ParseErrors)
	fmt.Printf("vector_index_size:  %d\n", components.Searcher.VectorIndexSize())
	fmt.Printf("noun_documents:     %d\n", components.Searcher.NounDocumentCount())
	fmt.Printf("keyword_index_size: %d\n", components.Searcher.KeywordDocCount())
	diskBytes, err := storage.DiskUsageBytes(
		cfg.Paths.ExtractedDir, cfg.Paths.EmbeddingsDir,
		cfg.Paths.DatabasePath, cfg.Paths.KeywordIndexPath, cfg.Paths.VectorIndexPath)
	if err == nil {
		fmt.Printf("disk_usage_bytes:   %d\n", diskBytes)
	}
}

// Components holds the services the search and server commands share.
type Components struct {
	Catalog  *storage.Catalog
	Embedder embedding.Embedder
	Vectors  *vector.Engine
	Nouns    *nouns.Engine
	Keywords *keyword.Index
	Searcher *search.Searcher
}

// Close releases everything in reverse construction order.
func (c *Components) Close() {
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

// newEmbedder builds the ONNX embedder, falling back to the deterministic
// mock (with a warning) when the model or runtime is unavailable.
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.BatchSize,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using mock embeddings",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	return onnxEmbedder
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	catalog, err := storage.NewCatalog(cfg.Paths.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open block catalog: %w", err)
	}

	embedder := newEmbedder(cfg, logger)

	vectors := vector.NewEngine(embedder, vector.WithLogger(logger))
	loaded := false
	if cfg.Paths.VectorIndexPath != "" {
		if err := vectors.Load(cfg.Paths.VectorIndexPath); err != nil {
			logger.Warn("vector index load skipped",
				zap.String("path", cfg.Paths.VectorIndexPath), zap.Error(err))
		}
		loaded = vectors.Size() > 0
	}
	ctx := context.Background()
	if !loaded {
		if err := vectors.BuildFromJSON(ctx, cfg.Paths.CorpusPath); err != nil {
			_ = catalog.Close()
			_ = embedder.Close()
			return nil, fmt.Errorf("failed to build vector index: %w", err)
		}
	}

	nounEngine, err := nouns.NewEngine(cfg.Paths.CorpusPath, nouns.NewProseTagger(), nouns.WithLogger(logger))
	if err != nil {
		_ = catalog.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to build noun index: %w", err)
	}

	keywords, err := keyword.NewIndex(cfg.Paths.KeywordIndexPath)
	if err != nil {
		_ = catalog.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to open keyword index: %w", err)
	}
	if n, err := keywords.DocCount(); err == nil && n == 0 {
		filtered, loadErr := corpus.LoadFiltered(cfg.Paths.CorpusPath)
		if loadErr != nil {
			logger.Warn("keyword index not populated", zap.Error(loadErr))
		} else if err := keywords.IndexEntries(ctx, filtered.IDs, filtered.Texts); err != nil {
			logger.Warn("keyword indexing failed", zap.Error(err))
		}
	}

	searcher := search.NewSearcher(vectors, nounEngine, cfg.Search.MaxK,
		search.WithKeywordIndex(keywords), search.WithLogger(logger))

	return &Components{
		Catalog:  catalog,
		Embedder: embedder,
		Vectors:  vectors,
		Nouns:    nounEngine,
		Keywords: keywords,
		Searcher: searcher,
	}, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printUsage() {
	fmt.Println(`chishiki - PDF knowledge base builder and retrieval engine

Usage:
  chishiki extract [flags]          Digitize PDFs into block JSON files
  chishiki encode [flags]           Embed extracted blocks
  chishiki convert [flags] <jsonl>  Convert encoder JSONL to corpus JSON
  chishiki search [flags] <query>   Query the corpus
  chishiki server [flags]           Start the HTTP query server
  chishiki status [flags]           Show pipeline and index status
  chishiki version                  Show version
  chishiki help                     Show this help

Extract Flags:
  --config string    Config file path (default: /usr/local/etc/chishiki/config.yaml)
  --text-only        Extract plain text without the vision model
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for in-process search)
  --server string    Server URL (empty = search in-process)
  --k int            Number of results (default: 5)
  --mode string      Search mode: semantic, nouns, or keyword (default: semantic)
  --output string    Output format: text or json (default: text)

Examples:
  chishiki extract
  chishiki encode
  chishiki convert embeddings/paper1.jsonl
  chishiki search "bayesian optimization"
  chishiki search --mode nouns "reinforcement learning agents"
  chishiki server --debug
  chishiki status`)
}
