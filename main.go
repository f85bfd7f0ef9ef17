package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms/openai"

	"mango-chat-backend/config"
	"mango-chat-backend/controller"
	"mango-chat-backend/dao"
	"mango-chat-backend/middleware"
	"mango-chat-backend/router"
	"mango-chat-backend/service/chat"
	"mango-chat-backend/service/images"
	"mango-chat-backend/service/knowledge"
	"mango-chat-backend/service/tools"
	"mango-chat-backend/utils"
)

// pruneInterval is how often expired sessions and feedback are swept.
const pruneInterval = time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.Server.GinMode)

	db, err := dao.Open(cfg.MySQL.DSN)
	if err != nil {
		slog.Error("Failed to open database", "err", err)
		os.Exit(1)
	}
	store := dao.NewStore(db, cfg.Chat.RecencyWindow)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	knowledgeSvc, err := knowledge.NewService(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create knowledge service", "err", err)
		os.Exit(1)
	}

	llm, err := openai.New(
		openai.WithModel(cfg.Model.Name),
		openai.WithToken(cfg.Model.APIKey),
		openai.WithBaseURL(cfg.Model.BaseURL),
		openai.WithHTTPClient(utils.NewHTTPClient(
			utils.WithTimeout(cfg.Chat.MaxDuration),
		)),
	)
	if err != nil {
		slog.Error("Failed to create model client", "err", err)
		os.Exit(1)
	}

	imageClient := images.NewClient(cfg)
	registry := tools.NewRegistry(
		tools.NewKnowledgeTool(knowledgeSvc),
		tools.NewImagesTool(imageClient),
		tools.NewCompareTool(knowledgeSvc),
	)
	orchestrator := chat.NewOrchestrator(llm, registry, cfg.Chat.MaxSteps)

	chatCtl := controller.NewChatController(store, orchestrator, cfg.Chat.MaxDuration)
	sessionCtl := controller.NewSessionController(store, cfg.Chat.MaxSessions)
	feedbackCtl := controller.NewFeedbackController(store)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)

	r := router.Register(cfg, chatCtl, sessionCtl, feedbackCtl, limiter)

	go pruneLoop(ctx, store, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "err", err)
	}
}

// pruneLoop periodically drops sessions and feedback past their retention
// windows. Retention is enforced only here, never on the request path.
func pruneLoop(ctx context.Context, store *dao.Store, cfg *config.Config) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.PruneExpired(ctx, cfg.Retention.Session, cfg.Retention.Feedback); err != nil {
				slog.Error("Retention prune failed", "err", err)
			}
		}
	}
}
