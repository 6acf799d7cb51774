package models

import (
	"encoding/json"
	"testing"
)

func TestFlexTotalUnmarshal(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{`42`, 42, false},
		{`"42"`, 42, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
	}
	for _, c := range cases {
		var total FlexTotal
		err := json.Unmarshal([]byte(c.in), &total)
		if c.wantErr {
			if err == nil {
				t.Errorf("unmarshal %s: expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("unmarshal %s: %v", c.in, err)
			continue
		}
		if int(total) != c.want {
			t.Errorf("unmarshal %s = %d, want %d", c.in, total, c.want)
		}
	}
}

func TestDemandPageDecode(t *testing.T) {
	payload := `{
		"response": {
			"total": "2",
			"data": [
				{"period": "2024-01-01", "respondent": "PJM", "respondent-name": "PJM Interconnection", "type": "D", "type-name": "Demand", "value": "1000.5", "value-units": "megawatthours"},
				{"period": "2024-01-02", "respondent": "PJM", "respondent-name": "PJM Interconnection", "type": "D", "type-name": "Demand", "value": "1001.5", "value-units": "megawatthours"}
			]
		}
	}`
	var page DemandPage
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if int(page.Response.Total) != 2 {
		t.Errorf("total = %d, want 2", page.Response.Total)
	}
	if len(page.Response.Data) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page.Response.Data))
	}
	if page.Response.Data[0].Respondent != "PJM" || page.Response.Data[0].ValueUnits != "megawatthours" {
		t.Errorf("unexpected record: %+v", page.Response.Data[0])
	}
}

func TestDemandPageMissingData(t *testing.T) {
	var page DemandPage
	if err := json.Unmarshal([]byte(`{"response": {"total": 5}}`), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if page.Response.Data != nil {
		t.Errorf("expected nil data container, got %v", page.Response.Data)
	}
}
