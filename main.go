package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"artisty_assistant/internal/assistant"
	"artisty_assistant/internal/config"
	"artisty_assistant/internal/inventory"
	"artisty_assistant/internal/server"
	"artisty_assistant/pkg"
	"artisty_assistant/src"
	"artisty_assistant/src/conversation"
	"artisty_assistant/src/llm"
	"artisty_assistant/src/logger"
	"artisty_assistant/src/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := src.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	tuning, tuningErr := config.LoadConfig(cfg.AssistantConfig.TuningPath)
	if tuningErr == nil {
		tuning.Apply(&cfg.AssistantConfig, &cfg.MemoryConfig)
	}

	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	log := logger.Component("main")

	switch {
	case tuningErr == nil:
		log.Info().Str("path", cfg.AssistantConfig.TuningPath).Msg("Tuning file applied")
	case errors.Is(tuningErr, fs.ErrNotExist):
		log.Debug().Str("path", cfg.AssistantConfig.TuningPath).Msg("No tuning file, using environment only")
	default:
		log.Fatal().Err(tuningErr).Msg("Invalid tuning file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *src.Config, log zerolog.Logger) error {
	inv, skipped, err := inventory.Load(cfg.AssistantConfig.InventoryPath, cfg.AssistantConfig.InventoryFallbackPath)
	if err != nil {
		log.Error().Err(err).Msg("Starting without inventory")
	}
	if len(skipped) > 0 {
		log.Warn().Int("skipped", len(skipped)).Strs("lines", skipped).Msg("Inventory lines did not match the record grammar")
	}

	store := openStore(ctx, cfg, log)
	defer store.Close()
	memory := conversation.NewService(store, cfg.MemoryConfig)

	fallback := pkg.HealthStatus{
		InventoryLoaded: inv.Available(),
		InventoryLength: inv.Length(),
		ArtworkCount:    inv.Count(),
		MemoryBackend:   store.Backend(),
		MemoryReachable: store.Ping(ctx) == nil,
		Provider:        cfg.LLMConfig.Provider,
	}

	var chatter server.Chatter
	chatModel, err := llm.NewChatModel(ctx, cfg.LLMConfig)
	if err != nil {
		log.Error().Err(err).Msg("Chat model unavailable, serving health only")
	} else {
		a, err := assistant.New(ctx, chatModel, inv, memory, assistant.Config{
			Assistant: cfg.AssistantConfig,
			Provider:  cfg.LLMConfig.Provider,
		}, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to build assistant: %w", err)
		}
		chatter = a
	}

	srv := server.New(chatter, fallback, cfg.ServerConfig.RequestTimeout, logger.Logger)
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.ServerConfig.ReadTimeout,
		WriteTimeout: cfg.ServerConfig.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("provider", cfg.LLMConfig.Provider).
			Str("model", cfg.LLMConfig.Model).
			Msg("Artisty assistant listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerConfig.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore uses Redis when configured and reachable, in-memory storage otherwise
func openStore(ctx context.Context, cfg *src.Config, log zerolog.Logger) storage.ConversationStore {
	limits := storage.Limits{
		MaxMessages:    cfg.MemoryConfig.MaxMessages,
		RecommendedCap: cfg.AssistantConfig.RecommendedHistoryCap,
		TTL:            cfg.MemoryConfig.TTL,
	}

	if cfg.MemoryConfig.RedisURL != "" {
		store, err := storage.NewRedisStore(ctx, cfg.MemoryConfig.RedisURL, limits)
		if err == nil {
			log.Info().Msg("Using Redis conversation memory")
			return store
		}
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory conversation memory")
	}
	return storage.NewMemoryStore(limits)
}
