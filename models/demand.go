package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawDemandRecord represents one entity-day observation exactly as returned
// by the EIA API. All fields are strings; typing happens in the normalizer.
type RawDemandRecord struct {
	Period         string `json:"period"`
	Respondent     string `json:"respondent"`
	RespondentName string `json:"respondent-name"`
	Type           string `json:"type"`
	TypeName       string `json:"type-name"`
	Value          string `json:"value"`
	ValueUnits     string `json:"value-units"`
}

// FlexTotal decodes the response total, which the API serves either as a
// JSON number or as a quoted string depending on the endpoint version.
type FlexTotal int

func (t *FlexTotal) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*t = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid total %q: %w", s, err)
	}
	*t = FlexTotal(n)
	return nil
}

// DemandPage mirrors one page of the EIA v2 response envelope. Data stays nil
// when the payload lacks the expected container, which callers treat as a
// truncation condition.
type DemandPage struct {
	Response struct {
		Data  []RawDemandRecord `json:"data"`
		Total FlexTotal         `json:"total"`
	} `json:"response"`
}

// DateWindow is an inclusive calendar-date range for one run.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// FetchResult carries one region's drain outcome. Truncated marks a sequence
// cut short by a transport or payload-shape failure; the records gathered up
// to that point are still usable.
type FetchResult struct {
	Region    string
	Records   []RawDemandRecord
	Total     int
	Pages     int
	Truncated bool
}

// DemandRow is the bronze table schema. Date and DemandMWh are nil when the
// source field could not be parsed.
type DemandRow struct {
	Date         *time.Time `json:"date"`
	RegionCode   string     `json:"region_code"`
	RegionName   string     `json:"region_name"`
	DataType     string     `json:"data_type"`
	DataTypeName string     `json:"data_type_name"`
	DemandMWh    *float64   `json:"demand_mwh"`
	Units        string     `json:"units"`
	IngestedAt   time.Time  `json:"_ingested_at"`
	Source       string     `json:"_source"`
}

// DemandBatch is the unit handed to table writers. Rows preserve fetch order:
// region-major, ascending period within each region.
type DemandBatch struct {
	BatchID     string      `json:"batch_id"`
	Rows        []DemandRow `json:"rows"`
	RecordCount int         `json:"record_count"`
	Window      DateWindow  `json:"window"`
	IngestedAt  time.Time   `json:"ingested_at"`
}
