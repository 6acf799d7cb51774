package processor

import (
	"strconv"
	"strings"
	"time"

	"gridflow/logger"
	"gridflow/models"
)

// SourceTag marks every bronze row with its origin system.
const SourceTag = "eia_api"

// fallbackLayouts are tried in order when the period matches neither the
// compact nor the hyphenated daily encoding. The API mixes encodings across
// endpoints, so the last resort is a permissive sweep.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"20060102",
}

// Normalizer maps raw API records into the fixed bronze schema. It is a pure
// mapping: every input yields exactly one output row in input order, and
// unparseable fields surface as nulls, never as errors.
type Normalizer struct {
	log *logger.Log

	// Metrics
	recordsProcessed int64
	nullDates        int64
	nullValues       int64
}

func NewNormalizer() *Normalizer {
	return &Normalizer{log: logger.GetLogger()}
}

// Normalize projects the concatenated raw records into bronze rows. All rows
// share the single ingestedAt timestamp for the run.
func (n *Normalizer) Normalize(records []models.RawDemandRecord, ingestedAt time.Time) []models.DemandRow {
	log := n.log.WithComponent("normalizer").WithFields(logger.Fields{"operation": "normalize"})

	rows := make([]models.DemandRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, models.DemandRow{
			Date:         n.parseDate(record.Period),
			RegionCode:   record.Respondent,
			RegionName:   record.RespondentName,
			DataType:     record.Type,
			DataTypeName: record.TypeName,
			DemandMWh:    n.parseValue(record.Value),
			Units:        record.ValueUnits,
			IngestedAt:   ingestedAt,
			Source:       SourceTag,
		})
	}
	n.recordsProcessed += int64(len(records))

	log.WithFields(logger.Fields{
		"records":     len(records),
		"null_dates":  n.nullDates,
		"null_values": n.nullValues,
	}).Info("records normalized")
	logger.LogDataFlowEntry(log, "eia_reader", "bronze_rows", len(rows), "demand_rows")

	return rows
}

// parseDate resolves the period's calendar date. The compact and hyphenated
// daily forms are matched by length first; anything else falls through to the
// permissive layout sweep and finally to nil.
func (n *Normalizer) parseDate(period string) *time.Time {
	period = strings.TrimSpace(period)

	switch len(period) {
	case 8:
		if t, err := time.Parse("20060102", period); err == nil {
			return &t
		}
	case 10:
		if t, err := time.Parse("2006-01-02", period); err == nil {
			return &t
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, period); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}

	n.nullDates++
	n.log.WithComponent("normalizer").WithFields(logger.Fields{"period": period}).Debug("period matched no known encoding, nulling date")
	return nil
}

// parseValue converts the demand string to a float. Non-numeric markers like
// "N/A" or "" yield nil.
func (n *Normalizer) parseValue(raw string) *float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		n.nullValues++
		return nil
	}
	return &value
}
