package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type sourceStat struct {
	records int64
	bytes   int64
}

var (
	errorsReader     int64
	errorsWriter     int64
	warnsReader      int64
	warnsWriter      int64
	pagesFetched     int64
	recordsFetched   int64
	regionsTruncated int64
	snapshotsWritten int64
	sources          sync.Map // map[string]*sourceStat
)

func recordWarn(component string) {
	if strings.Contains(component, "reader") {
		atomic.AddInt64(&warnsReader, 1)
	} else if strings.Contains(component, "writer") {
		atomic.AddInt64(&warnsWriter, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "reader") {
		atomic.AddInt64(&errorsReader, 1)
	} else if strings.Contains(component, "writer") {
		atomic.AddInt64(&errorsWriter, 1)
	}
}

// IncrementPageRead records one fetched page and the records it carried.
func IncrementPageRead(records int, size int) {
	atomic.AddInt64(&pagesFetched, 1)
	atomic.AddInt64(&recordsFetched, int64(records))
	recordSource("eia_rest", records, size)
}

// IncrementRegionTruncated records a region whose fetch ended early.
func IncrementRegionTruncated() {
	atomic.AddInt64(&regionsTruncated, 1)
}

// IncrementSnapshotWrite records one snapshot landed in the sink.
func IncrementSnapshotWrite(records int, size int64) {
	atomic.AddInt64(&snapshotsWritten, 1)
	recordSource("sink_write", records, int(size))
}

func recordSource(name string, records int, size int) {
	v, _ := sources.LoadOrStore(name, &sourceStat{})
	ss := v.(*sourceStat)
	atomic.AddInt64(&ss.records, int64(records))
	atomic.AddInt64(&ss.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of ingestion statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	sourceData := map[string]map[string]int64{}
	sources.Range(func(k, v any) bool {
		name := k.(string)
		ss := v.(*sourceStat)
		sourceData[name] = map[string]int64{
			"records": atomic.LoadInt64(&ss.records),
			"bytes":   atomic.LoadInt64(&ss.bytes),
		}
		return true
	})

	fields := Fields{
		"errors_reader":     atomic.LoadInt64(&errorsReader),
		"errors_writer":     atomic.LoadInt64(&errorsWriter),
		"warns_reader":      atomic.LoadInt64(&warnsReader),
		"warns_writer":      atomic.LoadInt64(&warnsWriter),
		"pages_fetched":     atomic.LoadInt64(&pagesFetched),
		"records_fetched":   atomic.LoadInt64(&recordsFetched),
		"regions_truncated": atomic.LoadInt64(&regionsTruncated),
		"snapshots_written": atomic.LoadInt64(&snapshotsWritten),
		"goroutines":        runtime.NumGoroutine(),
		"sources":           sourceData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("PagesFetched"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["pages_fetched"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RecordsFetched"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["records_fetched"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RegionsTruncated"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["regions_truncated"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("SnapshotsWritten"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["snapshots_written"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsReader"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_reader"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_writer"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsReader"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_reader"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_writer"].(int64)))},
	)

	for name, stats := range sourceData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceRecords"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["records"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
