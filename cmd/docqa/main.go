package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"docqa/internal/agent"
	"docqa/internal/bus"
	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/index"
	"docqa/internal/llm"
	"docqa/internal/parser"
	"docqa/internal/summarizer"
	"docqa/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: docqa [--config=config.yaml] file1.txt [file2.md ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.LogLevel)

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hashing", "":
		emb = embedding.NewHashingEmbedder(cfg.Embedder.Dimension)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatal().Msg("openai embedder config missing")
		}
		client, err := embedding.NewOpenAIClient(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("openai embedder init failed")
		}
		emb = client
	default:
		log.Fatal().Str("type", cfg.Embedder.Type).Msg("unknown embedder")
	}

	var idx domain.VectorIndex
	switch cfg.Index.Type {
	case "memory", "":
		idx = index.NewMemory()
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatal().Msg("qdrant index config missing")
		}
		idx = index.NewQdrant(index.QdrantConfig{
			URL:        cfg.Index.Qdrant.URL,
			APIKey:     cfg.Index.Qdrant.APIKey,
			Collection: cfg.Index.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatal().Str("type", cfg.Index.Type).Msg("unknown index backend")
	}

	var completer domain.Completer
	switch cfg.LLM.Type {
	case "extractive", "":
		completer = llm.NewExtractive(cfg.LLM.ExtractSentences)
	case "openai":
		if cfg.LLM.OpenAI == nil {
			log.Fatal().Msg("openai llm config missing")
		}
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:     cfg.LLM.OpenAI.BaseURL,
			APIKeyEnv:   cfg.LLM.OpenAI.APIKeyEnv,
			Model:       cfg.LLM.OpenAI.Model,
			Temperature: cfg.LLM.OpenAI.Temperature,
			MaxTokens:   cfg.LLM.OpenAI.MaxTokens,
			Timeout:     time.Duration(cfg.LLM.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("openai llm init failed")
		}
		completer = client
	default:
		log.Fatal().Str("type", cfg.LLM.Type).Msg("unknown llm")
	}

	b := bus.NewBus(log)
	coordinator := agent.NewCoordinator(b, idx, cfg.Retrieval.TopK, log)
	ingestion := agent.NewIngestion(
		parser.NewRegistry(),
		chunker.NewWindowChunker(cfg.Chunker.TargetChars, cfg.Chunker.OverlapChars, cfg.Chunker.BoundaryTolerance),
		summarizer.NewFrequency(),
		log,
	)
	retrieval := agent.NewRetrieval(emb, idx, cfg.Retrieval.EmbedRetries, log)
	response := agent.NewResponse(completer, coordinator, log)
	agent.Wire(b, ingestion, retrieval, response, coordinator)

	// Ingest the documents named on the command line before opening
	// the chat. A document that fails never aborts its siblings.
	docs := make([]domain.DocumentInput, 0, len(inputs))
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
			os.Exit(1)
		}
		docs = append(docs, domain.DocumentInput{
			DocumentID: uuid.NewString(),
			FileName:   filepath.Base(path),
			Format:     strings.TrimPrefix(filepath.Ext(path), "."),
			Data:       data,
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	report := coordinator.SubmitBatch(ctx, docs)
	cancel()

	intro := ingestSummary(report)
	m := tui.New(coordinator, intro, 90*time.Second)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal().Err(err).Msg("tui failed")
	}
}

func ingestSummary(report domain.BatchReport) string {
	var sb strings.Builder
	segments := 0
	for _, r := range report.Succeeded {
		segments += r.SegmentCount
	}
	fmt.Fprintf(&sb, "Indexed %d document(s), %d segment(s).", len(report.Succeeded), segments)
	for _, f := range report.Failed {
		fmt.Fprintf(&sb, " Failed: %s (%v).", f.FileName, f.Err)
	}
	return sb.String()
}

func setupLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	// Log to stderr so the TUI owns stdout.
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
