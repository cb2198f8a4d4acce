package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"krakengpt/internal/adapter/chunker"
	"krakengpt/internal/adapter/provider"
	"krakengpt/internal/handlers"
	"krakengpt/internal/logger"
	"krakengpt/internal/server"
	"krakengpt/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	// One shared client for all providers.
	client := &http.Client{Timeout: 30 * time.Second}

	cloud := provider.NewCloud(cfg.Providers.Cloud, client)
	aggregator := provider.NewAggregator(cfg.Providers.Aggregator, client)
	local := provider.NewLocal(cfg.Providers.Local, client)
	router := provider.NewRouter(log, cfg.Providers.Default, cloud, aggregator, local)

	retriever := usecase.NewRetriever(st, embedder, log, cfg.Retrieval.TopK, cfg.Retrieval.MinScore)
	ingestor := usecase.NewIngestor(st, chunker.NewParagraphChunker(cfg.Retrieval.ChunkSize), embedder, log)
	chatlog := usecase.NewChatLog(st)

	engine := server.NewRouter(server.RouterConfig{
		Projects:    handlers.NewProjectHandler(st, log),
		Chats:       handlers.NewChatHandler(st, log),
		RAG:         handlers.NewRAGHandler(st, ingestor, retriever, log),
		Completions: handlers.NewCompletionHandler(router, retriever, chatlog, log),
		Models:      handlers.NewModelsHandler(router, aggregator),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("gateway listening",
		"addr", addr,
		"default_provider", cfg.Providers.Default,
		"embedding_provider", cfg.Embedding.Provider,
	)
	return engine.Run(addr)
}
