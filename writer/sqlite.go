package writer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	appconfig "gridflow/config"
	"gridflow/logger"
	"gridflow/models"
)

// tableStore writes snapshots into a local SQLite database. Each write drops
// and recreates the table inside one transaction, so readers on another
// connection observe either the previous snapshot or the new one.
type tableStore struct {
	db     *sql.DB
	table  string
	config *appconfig.Config
	log    *logger.Log
}

func newTableStore(cfg *appconfig.Config) (*tableStore, error) {
	db, err := sql.Open("sqlite", cfg.Storage.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &tableStore{
		db:     db,
		table:  cfg.Storage.SQLite.Table,
		config: cfg,
		log:    logger.GetLogger(),
	}

	store.log.WithComponent("sqlite_writer").WithFields(logger.Fields{
		"path":  cfg.Storage.SQLite.Path,
		"table": cfg.Storage.SQLite.Table,
	}).Info("sqlite writer initialized")

	return store, nil
}

// WriteSnapshot replaces the table with the batch rows in one transaction.
func (s *tableStore) WriteSnapshot(ctx context.Context, batch models.DemandBatch) error {
	log := s.log.WithComponent("sqlite_writer").WithFields(logger.Fields{
		"batch_id":     batch.BatchID,
		"record_count": batch.RecordCount,
		"table":        s.table,
		"operation":    "write_snapshot",
	})

	log.Info("writing table snapshot")
	started := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Table name is validated as a bare identifier at config load time.
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table)); err != nil {
		return fmt.Errorf("failed to drop previous snapshot: %w", err)
	}

	createStmt := fmt.Sprintf(`CREATE TABLE %s (
		date TEXT,
		region_code TEXT NOT NULL,
		region_name TEXT NOT NULL,
		data_type TEXT NOT NULL,
		data_type_name TEXT NOT NULL,
		demand_mwh REAL,
		units TEXT NOT NULL,
		_ingested_at TEXT NOT NULL,
		_source TEXT NOT NULL
	)`, s.table)
	if _, err = tx.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			date, region_code, region_name, data_type, data_type_name,
			demand_mwh, units, _ingested_at, _source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range batch.Rows {
		row := batch.Rows[i]

		var date any
		if row.Date != nil {
			date = row.Date.UTC().Format("2006-01-02")
		}
		var demand any
		if row.DemandMWh != nil {
			demand = *row.DemandMWh
		}

		_, err = stmt.ExecContext(
			ctx,
			date,
			row.RegionCode,
			row.RegionName,
			row.DataType,
			row.DataTypeName,
			demand,
			row.Units,
			row.IngestedAt.UTC().Format(time.RFC3339),
			row.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logger.IncrementSnapshotWrite(batch.RecordCount, 0)

	log.WithFields(logger.Fields{
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("table snapshot written successfully")

	return nil
}

func (s *tableStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
