package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdejong/fininsight/internal/config"
	"github.com/mdejong/fininsight/internal/domain"
	"github.com/mdejong/fininsight/internal/gcstore"
	infraBQ "github.com/mdejong/fininsight/internal/infra/bigquery"
	"github.com/mdejong/fininsight/internal/ingest"
	"github.com/mdejong/fininsight/internal/insight"
	"github.com/mdejong/fininsight/internal/logger"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "pull":
		runPull(log)
	case "snapshot":
		runSnapshot(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Financial Insight CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Analyze a local dataset (JSON or CSV) and print the report")
	fmt.Println("  pull      Pull transactions/accounts from BigQuery and print the report")
	fmt.Println("  snapshot  Upload a report JSON to GCS")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	file := fs.String("file", "", "Path to dataset file (.json or .csv)")
	configPath := fs.String("config", "", "Path to YAML config file")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	opts := engineOptions(log, *configPath)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read dataset")
	}

	var ds *ingest.Dataset
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".csv":
		txs, problems := ingest.ParseCSV(string(data))
		for _, p := range problems {
			log.Warn().Str("file", *file).Msg(p)
		}
		ds = &ingest.Dataset{Transactions: txs}
	default:
		ds, err = ingest.ParseJSON(data)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse dataset")
		}
	}

	report := insight.Analyze(insight.Input{
		Transactions:  ds.Transactions,
		Accounts:      ds.Accounts,
		History:       ds.History,
		ServerQuality: ds.ServerQuality,
	}, opts)

	printJSON(log, report)
}

func runPull(log zerolog.Logger) {
	fs := flag.NewFlagSet("pull", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	project := fs.String("project", "", "BigQuery project ID (overrides config)")
	dataset := fs.String("dataset", "", "BigQuery dataset ID (overrides config)")
	from := fs.String("from", "", "Start date YYYY-MM-DD")
	to := fs.String("to", "", "End date YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log, *configPath)
	if *project != "" {
		cfg.BigQuery.ProjectID = *project
	}
	if *dataset != "" {
		cfg.BigQuery.DatasetID = *dataset
	}
	if cfg.BigQuery.ProjectID == "" || cfg.BigQuery.DatasetID == "" {
		log.Fatal().Msg("Error: BigQuery project and dataset are required (flags or config)")
	}

	startDate, err := time.Parse("2006-01-02", *from)
	if err != nil {
		log.Fatal().Str("from", *from).Msg("Error: --from must be YYYY-MM-DD")
	}
	endDate := time.Now()
	if *to != "" {
		endDate, err = time.Parse("2006-01-02", *to)
		if err != nil {
			log.Fatal().Str("to", *to).Msg("Error: --to must be YYYY-MM-DD")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client, err := infraBQ.NewClient(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	txRows, err := client.QueryTransactionsByDateRange(ctx, startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transactions")
	}
	accountRows, err := client.QueryAccounts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query accounts")
	}

	txs := make([]domain.Transaction, 0, len(txRows))
	for _, r := range txRows {
		txs = append(txs, r.ToDomain())
	}
	accounts := make([]domain.Account, 0, len(accountRows))
	for _, r := range accountRows {
		accounts = append(accounts, r.ToDomain())
	}

	log.Info().Int("transactions", len(txs)).Int("accounts", len(accounts)).Msg("Pulled dataset")

	report := insight.Analyze(insight.Input{Transactions: txs, Accounts: accounts}, cfg.Engine)
	printJSON(log, report)
}

func runSnapshot(log zerolog.Logger) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	file := fs.String("file", "", "Path to report JSON file")
	bucket := fs.String("bucket", "", "GCS bucket name")
	object := fs.String("object", "", "GCS object name (defaults to filename)")
	fs.Parse(os.Args[2:])

	if *bucket == "" || *file == "" {
		log.Fatal().Msg("Usage: cli snapshot -bucket NAME -file PATH")
	}
	if *object == "" {
		*object = filepath.Base(*file)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read report file")
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucket).
		Str("object", *object).
		Msg("Uploading report to GCS")

	if err := gcstore.UploadReport(ctx, *bucket, *object, data); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *file, *bucket, *object)
}

func loadConfig(log zerolog.Logger, path string) config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	return cfg
}

func engineOptions(log zerolog.Logger, configPath string) insight.Options {
	return loadConfig(log, configPath).Engine
}

func printJSON(log zerolog.Logger, v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
}
