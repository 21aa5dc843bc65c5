package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"mentora/internal/config"
	"mentora/internal/embedding"
	"mentora/internal/llm"
	"mentora/internal/rag/storages/vectorstore"
	"mentora/internal/rag_service/api"
	"mentora/internal/rag_service/service"
	"mentora/pkg/logger"
)

func main() {
	// 1. Load .env (optional) and initialize the logger.
	_ = godotenv.Load()
	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("RAGService", "")
	appLogger.Info("Starting RAG Service...")

	// 2. Load Configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger.Info("Configuration loaded successfully.")

	// 3. Initialize Dependencies
	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	store, err := vectorstore.New(context.Background(), cfg.VectorStore, appLogger)
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	// 4. Create the RAG Service and its HTTP surface.
	ragService := service.New(embedder, store, llmClient, cfg.VectorStore, cfg.Retrieval, appLogger)
	router := api.SetupRouter(api.NewHandler(ragService, appLogger))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: router,
	}

	// 5. Start the HTTP server in a goroutine.
	go func() {
		appLogger.Info("HTTP server listening at " + cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
	appLogger.Info("Server gracefully stopped")
}
