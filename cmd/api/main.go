package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdejong/fininsight/internal/api/handlers"
	"github.com/mdejong/fininsight/internal/api/middleware"
	"github.com/mdejong/fininsight/internal/config"
	"github.com/mdejong/fininsight/internal/gcstore"
	"github.com/mdejong/fininsight/internal/ingest"
	"github.com/mdejong/fininsight/internal/insight"
	"github.com/mdejong/fininsight/internal/jobs"
	"github.com/mdejong/fininsight/internal/jobs/inmemory"
	"github.com/mdejong/fininsight/internal/logger"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		port        = flag.String("port", "", "HTTP server port (overrides config)")
		datasetFile = flag.String("dataset", os.Getenv("FININSIGHT_DATASET"), "Local dataset JSON file to serve and refresh from")
	)
	flag.Parse()

	log := logger.New()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		cfg = loaded
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Pick the dataset source for refresh cycles: a local file beats GCS.
	loadDataset, source := datasetLoader(cfg, *datasetFile)
	if loadDataset == nil {
		log.Warn().Msg("No dataset source configured - only ad hoc POST /api/report will work")
	}

	cache := handlers.NewReportCache()
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(16, jobStore)

	ctx := logger.WithContext(context.Background(), log)
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var publisher jobs.Publisher
	var store jobs.JobStore
	if loadDataset != nil {
		publisher, store = jobQueue, jobStore

		handler := func(ctx context.Context, job *jobs.RefreshJob) error {
			log.Info().Str("job_id", job.JobID).Str("source", job.Source).Msg("Refreshing report")

			ds, err := loadDataset(ctx)
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}
			report := insight.Analyze(insight.Input{
				Transactions:  ds.Transactions,
				Accounts:      ds.Accounts,
				History:       ds.History,
				ServerQuality: ds.ServerQuality,
			}, cfg.Engine)
			cache.Set(report)

			log.Info().
				Str("job_id", job.JobID).
				Int("transactions", len(ds.Transactions)).
				Int("actions", len(report.Actions)).
				Msg("Report refreshed")
			return nil
		}
		if err := jobQueue.Start(workerCtx, handler); err != nil {
			log.Fatal().Err(err).Msg("Failed to start refresh worker")
		}

		// Warm the cache so GET /api/report works immediately.
		if err := jobQueue.PublishRefresh(ctx, &jobs.RefreshJob{Source: source, Requested: "startup"}); err != nil {
			log.Warn().Err(err).Msg("Failed to enqueue initial refresh")
		}
	}

	mux := http.NewServeMux()
	handlers.NewReportHandler(cache, publisher, store, cfg.Engine, source, log).Register(mux)

	var handler http.Handler = mux
	handler = middleware.Logger(log)(handler)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cancelWorker()
	_ = jobQueue.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

// datasetLoader selects where refresh cycles read the dataset from.
func datasetLoader(cfg config.Config, datasetFile string) (func(context.Context) (*ingest.Dataset, error), string) {
	switch {
	case datasetFile != "":
		return func(ctx context.Context) (*ingest.Dataset, error) {
			data, err := os.ReadFile(datasetFile)
			if err != nil {
				return nil, fmt.Errorf("read dataset file: %w", err)
			}
			return ingest.ParseJSON(data)
		}, datasetFile

	case cfg.GCS.Bucket != "" && cfg.GCS.Object != "":
		uri := fmt.Sprintf("gs://%s/%s", cfg.GCS.Bucket, cfg.GCS.Object)
		return func(ctx context.Context) (*ingest.Dataset, error) {
			data, err := gcstore.DownloadDataset(ctx, cfg.GCS.Bucket, cfg.GCS.Object)
			if err != nil {
				return nil, err
			}
			return ingest.ParseJSON(data)
		}, uri

	default:
		return nil, ""
	}
}
