package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/revenuepulse/pulse-mcp/internal/filters"
	"github.com/revenuepulse/pulse-mcp/internal/tools"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

// cohortReport is the upstream payload shape for /reports/cohort.
type cohortReport struct {
	Cohorts []cohortRow `json:"cohorts"`
}

type cohortRow struct {
	Cohort    string    `json:"cohort"`
	Retention []float64 `json:"retention"`
}

type CohortsTool struct {
	client Fetcher
	now    func() time.Time
}

func NewCohortsTool(client Fetcher, now func() time.Time) *CohortsTool {
	return &CohortsTool{client: client, now: now}
}

func (t *CohortsTool) Name() string {
	return "getCohorts"
}

func (t *CohortsTool) Description() string {
	return "Cohort retention over a date range, aggregated per interval. Supports region, currency, billing frequency and age-group filters."
}

func (t *CohortsTool) Fields() filters.FieldSet {
	return filters.FieldSet{
		filters.FieldDate,
		filters.FieldInterval,
		filters.FieldRegion,
		filters.FieldCurrency,
		filters.FieldBillingFreq,
		filters.FieldAge,
	}
}

func (t *CohortsTool) OutputSchema() protocol.JSONSchema {
	return protocol.JSONSchema{
		"type": "object",
		"properties": map[string]interface{}{
			"cohorts": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"cohort": map[string]interface{}{"type": "string"},
						"retention": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "number"},
						},
					},
				},
			},
		},
	}
}

func (t *CohortsTool) Execute(ctx context.Context, f filters.Filters) (tools.Result, error) {
	f.ApplyDefaultDate(t.now())

	payload, err := t.client.FetchReport(ctx, "cohort", f.Values())
	if err != nil {
		return nil, err
	}

	var report cohortReport
	if err := json.Unmarshal(payload, &report); err != nil || len(report.Cohorts) == 0 {
		var raw interface{}
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		return tools.RawResult{Value: raw}, nil
	}

	blocks := make([]string, 0, len(report.Cohorts)+1)
	blocks = append(blocks, fmt.Sprintf("Cohort retention for %s, per %s:", f.Date, f.Interval))
	for _, row := range report.Cohorts {
		cells := make([]string, 0, len(row.Retention))
		for _, r := range row.Retention {
			cells = append(cells, printer.Sprintf("%.1f%%", r*100))
		}
		blocks = append(blocks, fmt.Sprintf("%s: %s", row.Cohort, strings.Join(cells, " ")))
	}
	return tools.Text(blocks...), nil
}
