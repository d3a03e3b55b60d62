package main

import (
	"consultant-agent-backend/config"
	"consultant-agent-backend/controller"
	"consultant-agent-backend/dao"
	"consultant-agent-backend/router"
	"consultant-agent-backend/service/chat"
	"consultant-agent-backend/service/ingest"
	"consultant-agent-backend/service/mq"
	"consultant-agent-backend/service/retrieval"
	"consultant-agent-backend/service/storage"
	"consultant-agent-backend/service/transcription"
	"consultant-agent-backend/service/vectorindex"
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

const janitorInterval = 5 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	if err := dao.Init(cfg.MySQL.DSN); err != nil {
		slog.Error("Failed to init database", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llm, err := openai.New(
		openai.WithToken(cfg.Model.APIKey),
		openai.WithBaseURL(cfg.Model.BaseURL),
		openai.WithModel(cfg.Model.ChatModel),
		openai.WithEmbeddingModel(cfg.Model.EmbeddingModel),
	)
	if err != nil {
		slog.Error("Failed to init llm client", "err", err)
		os.Exit(1)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		slog.Error("Failed to init embedder", "err", err)
		os.Exit(1)
	}

	index, err := vectorindex.NewMilvus(ctx, cfg.Milvus.Endpoint, cfg.Milvus.APIKey, cfg.Milvus.Collection, cfg.Milvus.VectorDim)
	if err != nil {
		slog.Error("Failed to init milvus", "err", err)
		os.Exit(1)
	}

	store := storage.NewOSSStore(cfg.OSS.Region, cfg.OSS.AccessKeyID, cfg.OSS.AccessKeySecret, cfg.OSS.BucketName)

	// 智能解析与语音转写按配置决定是否可用
	var smart ingest.SmartParser
	if cfg.SmartParseEnabled() {
		smart = ingest.NewSmartParseClient(cfg.SmartParse.Endpoint, cfg.SmartParse.APIKey, cfg.Ingest.StrategyTimeout)
	}
	var transcriber transcription.Transcriber
	if cfg.TranscribeEnabled() {
		transcriber = transcription.NewClient(cfg.Transcribe.Endpoint, cfg.Transcribe.APIKey)
	}

	extractor := ingest.NewExtractor(store, smart, transcriber, cfg.Ingest.MinFastChars, cfg.Ingest.StrategyTimeout)
	chunker := ingest.NewChunker(cfg.Ingest.WindowSize, cfg.Ingest.Overlap)
	indexer := ingest.NewIndexer(embedder, index)
	pipeline := ingest.NewPipeline(
		ingest.DAODocumentStore{},
		store,
		extractor,
		chunker,
		indexer,
		cfg.Ingest.MinTextChars,
		cfg.Ingest.SummaryChars,
	)
	pipeline.StartJanitor(ctx, janitorInterval, cfg.Ingest.StaleTimeout)

	queue, err := mq.New(cfg.MQ.NameServer)
	if err != nil {
		slog.Error("Failed to init mq", "err", err)
		os.Exit(1)
	}
	if err := queue.Run(pipeline.Process); err != nil {
		slog.Error("Failed to start mq consumer", "err", err)
		os.Exit(1)
	}
	defer queue.Shutdown()

	rewriter := retrieval.NewQueryRewriter(llm)
	retriever := retrieval.NewRetriever(embedder, index, rewriter, cfg.Retrieval.TopK, cfg.Retrieval.MinScore)
	orchestrator := chat.NewOrchestrator(llm, retriever, chat.DAOChatStore{}, cfg.Chat.PersistPartial)

	r := router.Register(router.Controllers{
		Document: controller.NewDocumentController(store, queue, index),
		Session:  controller.NewSessionController(),
		Chat:     controller.NewChatController(orchestrator),
		Tenant:   controller.NewTenantController(),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
	}
}
