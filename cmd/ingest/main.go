package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardcompass/credit-card-advisor/internal/bootstrap"
	"github.com/cardcompass/credit-card-advisor/internal/config"
	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
	"github.com/cardcompass/credit-card-advisor/internal/observability/logging"
)

func main() {
	wipe := flag.Bool("wipe", false, "delete all vectors in the namespace before upserting")
	fromArtifact := flag.Bool("from-artifact", false, "index the saved embedding artifact instead of re-embedding the corpus")
	saveArtifact := flag.Bool("save-artifact", false, "write the embedding artifact after embedding")
	timeout := flag.Duration("timeout", 15*time.Minute, "overall pipeline timeout")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("credit-card-advisor-ingest", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	start := time.Now()
	report, err := app.IngestUC.Run(ctx, domain.IngestOptions{
		Wipe:         *wipe,
		FromArtifact: *fromArtifact,
		SaveArtifact: *saveArtifact,
	})
	if err != nil {
		log.Fatalf("ingest error: %v", err)
	}

	slog.Info("ingest_complete",
		"source_documents", report.SourceDocuments,
		"cards", report.Cards,
		"upserted_vectors", report.UpsertedVectors,
		"batches", report.Batches,
		"index_total_vectors", report.TotalVectorCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
