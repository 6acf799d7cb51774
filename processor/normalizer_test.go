package processor

import (
	"testing"
	"time"

	"gridflow/models"
)

func rawRecord(period, value string) models.RawDemandRecord {
	return models.RawDemandRecord{
		Period:         period,
		Respondent:     "PJM",
		RespondentName: "PJM Interconnection",
		Type:           "D",
		TypeName:       "Demand",
		Value:          value,
		ValueUnits:     "megawatthours",
	}
}

func TestNormalizeCompactPeriod(t *testing.T) {
	n := NewNormalizer()
	ingestedAt := time.Now().UTC()

	rows := n.Normalize([]models.RawDemandRecord{rawRecord("20240115", "12345.6")}, ingestedAt)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Date == nil || row.Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("unexpected date: %v", row.Date)
	}
	if row.DemandMWh == nil || *row.DemandMWh != 12345.6 {
		t.Errorf("unexpected demand value: %v", row.DemandMWh)
	}
	if row.RegionCode != "PJM" || row.RegionName != "PJM Interconnection" {
		t.Errorf("unexpected region projection: %+v", row)
	}
	if row.DataType != "D" || row.DataTypeName != "Demand" || row.Units != "megawatthours" {
		t.Errorf("unexpected field projection: %+v", row)
	}
	if row.Source != SourceTag {
		t.Errorf("unexpected source tag: %s", row.Source)
	}
	if !row.IngestedAt.Equal(ingestedAt) {
		t.Errorf("unexpected ingested_at: %v", row.IngestedAt)
	}
}

func TestNormalizeHyphenatedPeriod(t *testing.T) {
	n := NewNormalizer()
	rows := n.Normalize([]models.RawDemandRecord{rawRecord("2024-01-15", "12345.6")}, time.Now().UTC())
	if rows[0].Date == nil || rows[0].Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("unexpected date: %v", rows[0].Date)
	}
}

func TestNormalizeFallbackPeriod(t *testing.T) {
	n := NewNormalizer()
	rows := n.Normalize([]models.RawDemandRecord{rawRecord("2024-01-15T00:00:00Z", "1.0")}, time.Now().UTC())
	if rows[0].Date == nil || rows[0].Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("unexpected fallback date: %v", rows[0].Date)
	}
}

func TestNormalizeUnparseablePeriod(t *testing.T) {
	n := NewNormalizer()
	rows := n.Normalize([]models.RawDemandRecord{rawRecord("not-a-date", "1.0")}, time.Now().UTC())
	if rows[0].Date != nil {
		t.Errorf("expected nil date, got %v", rows[0].Date)
	}
}

func TestNormalizeNonNumericValue(t *testing.T) {
	n := NewNormalizer()
	rows := n.Normalize([]models.RawDemandRecord{rawRecord("20240115", "N/A")}, time.Now().UTC())
	if rows[0].DemandMWh != nil {
		t.Errorf("expected nil demand, got %v", rows[0].DemandMWh)
	}
	if rows[0].Date == nil {
		t.Error("date should still parse when value does not")
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	n := NewNormalizer()
	records := []models.RawDemandRecord{
		rawRecord("20240101", "1"),
		rawRecord("20240102", "2"),
		rawRecord("20240103", "3"),
	}
	rows := n.Normalize(records, time.Now().UTC())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		if rows[i].Date == nil || rows[i].Date.Format("2006-01-02") != want {
			t.Errorf("row %d date = %v, want %s", i, rows[i].Date, want)
		}
	}
}

func TestNormalizeSharedTimestamp(t *testing.T) {
	n := NewNormalizer()
	ingestedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := n.Normalize([]models.RawDemandRecord{
		rawRecord("20240101", "1"),
		rawRecord("20240102", "2"),
	}, ingestedAt)
	for i, row := range rows {
		if !row.IngestedAt.Equal(ingestedAt) {
			t.Errorf("row %d ingested_at = %v, want %v", i, row.IngestedAt, ingestedAt)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer()
	rows := n.Normalize(nil, time.Now().UTC())
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
