package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"docqa/internal/agent"
	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/index"
	"docqa/internal/lexical"
	"docqa/internal/llm"
	"docqa/internal/server"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
	"docqa/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.StringVar(&addr, "addr", "", "Listen address override (e.g. :8000)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	// Assemble components
	newEmbedder := buildEmbedderFactory(cfg)
	newStorage := buildStorageFactory(cfg)

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "sentence", "":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	case "window":
		ch = chunker.NewWindowChunker(cfg.Chunker.WindowSize, cfg.Chunker.WindowOverlap)
	default:
		log.Fatalf("unknown chunker: %s", cfg.Chunker.Type)
	}

	sum := summarizer.NewFrequencySummarizer()

	var judge domain.Judge
	var generator domain.Generator
	switch cfg.LLM.Type {
	case "lexical", "":
		judge = lexical.NewJudge(cfg.LLM.LexicalThreshold)
		generator = lexical.NewGenerator(sum, 3)
	case "openai":
		client, err := llm.NewClient(llm.Config{
			BaseURL:    cfg.LLM.BaseURL,
			APIKeyEnv:  cfg.LLM.APIKeyEnv,
			Model:      cfg.LLM.Model,
			Timeout:    time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
			MaxRetries: cfg.LLM.MaxRetries,
		})
		if err != nil {
			log.Fatalf("llm client init failed: %v", err)
		}
		judge = llm.NewJudge(client)
		generator = llm.NewGenerator(client)
	default:
		log.Fatalf("unknown llm type: %s", cfg.LLM.Type)
	}

	idx := index.New(newEmbedder, newStorage, logger.New("index"))

	criticLog := logger.New("critic")
	critic := agent.NewCritic(judge, cfg.Agent.JudgeConcurrency, func(i int, relevant bool) {
		if relevant {
			criticLog.Printf("passage %d: RELEVANT", i+1)
		} else {
			criticLog.Printf("passage %d: NOT RELEVANT", i+1)
		}
	}, criticLog)
	synth := agent.NewSynthesizer(generator)
	loop, err := agent.NewLoop(idx, critic, synth, agent.Config{
		KInitial:  cfg.Agent.KInitial,
		KFallback: cfg.Agent.KFallback,
	}, logger.New("agent"))
	if err != nil {
		log.Fatalf("loop init failed: %v", err)
	}

	ingest := service.NewIngestService(ch, idx, sum, cfg.Summarizer.MaxSentences, logger.New("ingest"))
	srv := server.New(ingest, loop, idx, logger.New("server"))
	if err := srv.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func buildEmbedderFactory(cfg *config.AppConfig) func() embedding.Embedder {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		// Fresh embedder per upload: the vocabulary is prepared per corpus.
		return func() embedding.Embedder { return tfidf.NewEmbedder() }
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return func() embedding.Embedder { return client }
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
		return nil
	}
}

func buildStorageFactory(cfg *config.AppConfig) func() vectorstore.Storage {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return func() vectorstore.Storage { return memory.NewStorage() }
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		qcfg := *cfg.VectorStore.Qdrant
		// A distinct collection per upload keeps old snapshots readable
		// until they are cleared.
		return func() vectorstore.Storage {
			return qdrant.NewStorage(qdrant.Config{
				URL:        qcfg.URL,
				APIKey:     qcfg.APIKey,
				Collection: fmt.Sprintf("%s-%s", qcfg.Collection, uuid.NewString()[:8]),
				Timeout:    time.Duration(qcfg.TimeoutSecs) * time.Second,
			})
		}
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
		return nil
	}
}
