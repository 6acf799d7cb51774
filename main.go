package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gridflow/config"
	"gridflow/logger"
	"gridflow/pipeline"
	"gridflow/reader/eia"
	"gridflow/secrets"
	"gridflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	regionsPath := flag.String("regions", "config/regions.yml", "Path to region configuration file")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Gridflow.Name,
		"version":     cfg.Gridflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting gridflow")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		if cfg.Storage.S3.Enabled {
			logger.InitCloudWatch(cfg.Storage.S3.Region, "GridFlow", cfg.Logging.DashboardName)
		}
		logger.StartReport(ctx, log, 30*time.Second)
	}

	regions, err := config.LoadRegions(*regionsPath)
	if err != nil {
		log.WithError(err).Error("failed to load region configuration")
		os.Exit(1)
	}
	cfg.Source.EIA.Regions = regions.Codes()

	creds := secrets.Env{Var: cfg.Source.EIA.APIKeyEnv}
	reader, err := eia.NewReader(cfg, creds)
	if err != nil {
		log.WithError(err).WithEnv(cfg.Source.EIA.APIKeyEnv).Error("failed to create reader")
		os.Exit(1)
	}

	sink, err := writer.NewTableWriter(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create table writer")
		os.Exit(1)
	}
	defer sink.Close()

	runner := pipeline.NewRunner(cfg, reader, sink)
	if err := runner.Run(ctx); err != nil {
		log.WithError(err).Error("ingestion run failed")
		sink.Close()
		os.Exit(1)
	}

	log.Info("gridflow stopped")
}
