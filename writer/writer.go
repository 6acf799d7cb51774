package writer

import (
	"context"
	"fmt"

	appconfig "gridflow/config"
	"gridflow/logger"
	"gridflow/models"
)

// TableWriter replaces the full contents of the bronze table with the rows of
// one batch. Implementations must be atomic enough that a failed write never
// leaves readers with a mix of old and new snapshots.
type TableWriter interface {
	WriteSnapshot(ctx context.Context, batch models.DemandBatch) error
	Close() error
}

// NewTableWriter selects the storage backend from configuration. When both
// backends are enabled S3 wins; config validation guarantees at least one is.
func NewTableWriter(cfg *appconfig.Config) (TableWriter, error) {
	log := logger.GetLogger()

	switch {
	case cfg.Storage.S3.Enabled:
		log.WithComponent("writer").WithFields(logger.Fields{
			"backend": "s3",
			"bucket":  cfg.Storage.S3.Bucket,
			"table":   cfg.Storage.S3.TableName,
		}).Info("selected storage backend")
		return newSnapshotWriter(cfg)
	case cfg.Storage.SQLite.Enabled:
		log.WithComponent("writer").WithFields(logger.Fields{
			"backend": "sqlite",
			"path":    cfg.Storage.SQLite.Path,
			"table":   cfg.Storage.SQLite.Table,
		}).Info("selected storage backend")
		return newTableStore(cfg)
	default:
		return nil, fmt.Errorf("no storage backend enabled")
	}
}
