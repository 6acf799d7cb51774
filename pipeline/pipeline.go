package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	appconfig "gridflow/config"
	"gridflow/logger"
	"gridflow/models"
	"gridflow/processor"
	"gridflow/writer"
)

// Fetcher drains the upstream API for every configured region.
type Fetcher interface {
	FetchAll(ctx context.Context, window models.DateWindow) []models.FetchResult
}

// Runner wires one ingestion run: fetch every region, normalize the combined
// records, and replace the bronze table with the result. Fetch failures
// degrade to partial data; only credential and sink failures abort the run.
type Runner struct {
	config  *appconfig.Config
	fetcher Fetcher
	norm    *processor.Normalizer
	writer  writer.TableWriter
	log     *logger.Log
}

func NewRunner(cfg *appconfig.Config, fetcher Fetcher, sink writer.TableWriter) *Runner {
	return &Runner{
		config:  cfg,
		fetcher: fetcher,
		norm:    processor.NewNormalizer(),
		writer:  sink,
		log:     logger.GetLogger(),
	}
}

// resolveWindow builds the run's date window from configuration. The start
// date is required; the end date defaults to the current day so scheduled
// runs always extend the table to the present.
func resolveWindow(cfg *appconfig.Config, now time.Time) (models.DateWindow, error) {
	start, err := time.Parse("2006-01-02", cfg.Source.EIA.StartDate)
	if err != nil {
		return models.DateWindow{}, fmt.Errorf("invalid start date %q: %w", cfg.Source.EIA.StartDate, err)
	}

	end := now.UTC().Truncate(24 * time.Hour)
	if cfg.Source.EIA.EndDate != "" {
		end, err = time.Parse("2006-01-02", cfg.Source.EIA.EndDate)
		if err != nil {
			return models.DateWindow{}, fmt.Errorf("invalid end date %q: %w", cfg.Source.EIA.EndDate, err)
		}
	}

	if end.Before(start) {
		return models.DateWindow{}, fmt.Errorf("end date %s precedes start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	return models.DateWindow{Start: start, End: end}, nil
}

// Run executes one complete ingestion cycle.
func (r *Runner) Run(ctx context.Context) error {
	log := r.log.WithComponent("pipeline").WithFields(logger.Fields{"operation": "run"})

	window, err := resolveWindow(r.config, time.Now())
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"window_start": window.Start.Format("2006-01-02"),
		"window_end":   window.End.Format("2006-01-02"),
		"regions":      len(r.config.Source.EIA.Regions),
	}).Info("starting ingestion run")

	started := time.Now()
	results := r.fetcher.FetchAll(ctx, window)

	var records []models.RawDemandRecord
	truncated := 0
	for _, result := range results {
		records = append(records, result.Records...)
		if result.Truncated {
			truncated++
		}
	}

	ingestedAt := time.Now().UTC()
	rows := r.norm.Normalize(records, ingestedAt)

	batch := models.DemandBatch{
		BatchID:     uuid.New().String(),
		Rows:        rows,
		RecordCount: len(rows),
		Window:      window,
		IngestedAt:  ingestedAt,
	}

	if err := r.writer.WriteSnapshot(ctx, batch); err != nil {
		log.WithError(err).WithFields(logger.Fields{"batch_id": batch.BatchID}).Error("snapshot write failed")
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.WithFields(logger.Fields{
		"batch_id":          batch.BatchID,
		"records":           len(rows),
		"regions":           len(results),
		"regions_truncated": truncated,
		"duration":          time.Since(started).String(),
	}).Info("ingestion run completed")

	return nil
}
