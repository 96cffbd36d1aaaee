package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/cardcompass/credit-card-advisor/internal/adapters/http"
	"github.com/cardcompass/credit-card-advisor/internal/bootstrap"
	"github.com/cardcompass/credit-card-advisor/internal/config"
	"github.com/cardcompass/credit-card-advisor/internal/observability/logging"
	"github.com/cardcompass/credit-card-advisor/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("credit-card-advisor-api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	serverMetrics := metrics.NewHTTPServerMetrics("credit-card-advisor")
	router := httpadapter.NewRouter(app.Retriever, app.AnswerUC, serverMetrics, httpadapter.RouterOptions{
		Meta:             app.Meta,
		ChatModel:        cfg.MistralChatModel,
		SearchTopKMax:    cfg.SearchTopKMax,
		StreamChunkChars: cfg.StreamChunkChars,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		MaxInFlight:      cfg.MaxInFlight,
		AllowedOrigins:   cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
