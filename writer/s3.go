package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "gridflow/config"
	"gridflow/logger"
	"gridflow/models"
)

const maxDeleteBatch = 1000

type snapshotWriter struct {
	config   *appconfig.Config
	s3Client *s3.Client
	log      *logger.Log

	snapshotsWritten atomic.Int64
	bytesWritten     atomic.Int64
}

func newSnapshotWriter(cfg *appconfig.Config) (*snapshotWriter, error) {
	log := logger.GetLogger()

	ctx := context.Background()

	// Configure AWS options
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_writer").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	// Validate credentials
	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	// Create S3 client
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	w := &snapshotWriter{
		config:   cfg,
		s3Client: s3Client,
		log:      log,
	}

	log.WithComponent("s3_writer").WithFields(logger.Fields{
		"bucket":     cfg.Storage.S3.Bucket,
		"region":     cfg.Storage.S3.Region,
		"endpoint":   cfg.Storage.S3.Endpoint,
		"path_style": cfg.Storage.S3.PathStyle,
		"table":      cfg.Storage.S3.TableName,
	}).Info("s3 writer initialized")

	return w, nil
}

// tablePrefix is the key prefix holding every data file of the bronze table.
func (w *snapshotWriter) tablePrefix() string {
	prefix := path.Join(w.config.Storage.S3.TablePrefix, w.config.Storage.S3.TableName)
	return prefix + "/"
}

func (w *snapshotWriter) snapshotKey(batch models.DemandBatch) string {
	ts := batch.IngestedAt.UTC().Format("20060102150405")
	filename := fmt.Sprintf("%s_%s_%s.parquet", w.config.Storage.S3.TableName, ts, batch.BatchID)
	return w.tablePrefix() + filename
}

// WriteSnapshot replaces the table contents in place: the batch is encoded to
// parquet, every previous data file under the table prefix is deleted, and
// the new file is uploaded. The new file is written before the old ones are
// removed so a failed upload leaves the previous snapshot intact.
func (w *snapshotWriter) WriteSnapshot(ctx context.Context, batch models.DemandBatch) error {
	log := w.log.WithComponent("s3_writer").WithFields(logger.Fields{
		"batch_id":     batch.BatchID,
		"record_count": batch.RecordCount,
		"operation":    "write_snapshot",
	})

	log.Info("writing table snapshot")

	data, err := buildParquetFile(batch.Rows, w.config.Storage.S3.Compression)
	if err != nil {
		return fmt.Errorf("failed to build parquet file: %w", err)
	}

	previous, err := w.listTableObjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list table objects: %w", err)
	}

	key := w.snapshotKey(batch)
	if err := w.uploadToS3(ctx, key, data, batch); err != nil {
		log.WithError(err).
			WithEnv("S3_BUCKET").
			WithFields(logger.Fields{"bucket": w.config.Storage.S3.Bucket, "s3_key": key}).
			Error("failed to upload to S3")
		return err
	}

	if err := w.deleteObjects(ctx, previous); err != nil {
		return fmt.Errorf("failed to remove previous snapshot files: %w", err)
	}

	w.snapshotsWritten.Add(1)
	w.bytesWritten.Add(int64(len(data)))
	logger.IncrementSnapshotWrite(batch.RecordCount, int64(len(data)))

	log.WithFields(logger.Fields{
		"s3_key":       key,
		"file_size":    len(data),
		"replaced":     len(previous),
		"ingested_at":  batch.IngestedAt,
		"window_start": batch.Window.Start.Format("2006-01-02"),
		"window_end":   batch.Window.End.Format("2006-01-02"),
	}).Info("table snapshot written successfully")

	return nil
}

func (w *snapshotWriter) Close() error {
	w.log.WithComponent("s3_writer").WithFields(logger.Fields{
		"snapshots_written": w.snapshotsWritten.Load(),
		"bytes_written":     w.bytesWritten.Load(),
	}).Info("s3 writer closed")
	return nil
}

func (w *snapshotWriter) listTableObjects(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(w.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(w.config.Storage.S3.Bucket),
		Prefix: aws.String(w.tablePrefix()),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

func (w *snapshotWriter) deleteObjects(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := start + maxDeleteBatch
		if end > len(keys) {
			end = len(keys)
		}

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		_, err := w.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(w.config.Storage.S3.Bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return err
		}
	}

	if len(keys) > 0 {
		w.log.WithComponent("s3_writer").WithFields(logger.Fields{
			"deleted": len(keys),
		}).Debug("removed previous snapshot files")
	}

	return nil
}

func (w *snapshotWriter) uploadToS3(ctx context.Context, key string, data []byte, batch models.DemandBatch) error {
	log := w.log.WithComponent("s3_writer").WithFields(logger.Fields{
		"operation": "upload_to_s3",
		"data_size": len(data),
	})
	log.Info("uploading to S3")

	started := time.Now()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.config.Storage.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":     "parquet",
			"compression":      w.config.Storage.S3.Compression,
			"batch-id":         batch.BatchID,
			"record-count":     fmt.Sprintf("%d", batch.RecordCount),
			"gridflow-version": w.config.Gridflow.Version,
		},
	}

	_, err := w.s3Client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", w.config.Storage.S3.Bucket, err)
	}

	logger.LogPerformanceEntry(log, "s3_writer", "put_object", time.Since(started), logger.Fields{
		"s3_key": key,
	})

	log.Info("successfully uploaded to S3")
	return nil
}
