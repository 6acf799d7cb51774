package writer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"gridflow/models"
)

// ParquetRecord represents the structure of our parquet file. Date and
// DemandMWh are optional columns; a nil pointer writes a parquet null.
type ParquetRecord struct {
	Date         *int32   `parquet:"name=date, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	RegionCode   string   `parquet:"name=region_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	RegionName   string   `parquet:"name=region_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	DataType     string   `parquet:"name=data_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	DataTypeName string   `parquet:"name=data_type_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	DemandMWh    *float64 `parquet:"name=demand_mwh, type=DOUBLE, repetitiontype=OPTIONAL"`
	Units        string   `parquet:"name=units, type=BYTE_ARRAY, convertedtype=UTF8"`
	IngestedAt   int64    `parquet:"name=_ingested_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Source       string   `parquet:"name=_source, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// memoryFileWriter implements ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{
		buffer: &bytes.Buffer{},
	}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Writing is append-only; report the current end of buffer.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

// epochDays converts a calendar date to the day count parquet's DATE type
// expects.
func epochDays(t time.Time) int32 {
	return int32(t.UTC().Truncate(24*time.Hour).Unix() / 86400)
}

func toParquetRecord(row models.DemandRow) ParquetRecord {
	record := ParquetRecord{
		RegionCode:   row.RegionCode,
		RegionName:   row.RegionName,
		DataType:     row.DataType,
		DataTypeName: row.DataTypeName,
		DemandMWh:    row.DemandMWh,
		Units:        row.Units,
		IngestedAt:   row.IngestedAt.UnixMilli(),
		Source:       row.Source,
	}
	if row.Date != nil {
		days := epochDays(*row.Date)
		record.Date = &days
	}
	return record
}

// buildParquetFile encodes the batch rows into a single in-memory parquet
// file using the configured compression codec.
func buildParquetFile(rows []models.DemandRow, compression string) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := writer.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	switch compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	case "lzo":
		pw.CompressionType = parquet.CompressionCodec_LZO
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	for _, row := range rows {
		if err := pw.Write(toParquetRecord(row)); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	return fw.Bytes(), nil
}
