package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/revenuepulse/pulse-mcp/internal/filters"
	"github.com/revenuepulse/pulse-mcp/internal/tools"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

// leadsReport is the upstream payload shape for /reports/leads.
type leadsReport struct {
	Points []leadsPoint `json:"points"`
}

type leadsPoint struct {
	Period string `json:"period"`
	Leads  int64  `json:"leads"`
	Trials int64  `json:"trials"`
}

type LeadsTool struct {
	client Fetcher
	now    func() time.Time
}

func NewLeadsTool(client Fetcher, now func() time.Time) *LeadsTool {
	return &LeadsTool{client: client, now: now}
}

func (t *LeadsTool) Name() string {
	return "getLeads"
}

func (t *LeadsTool) Description() string {
	return "Lead and trial funnel volumes over a date range, aggregated per interval, optionally restricted to a region."
}

func (t *LeadsTool) Fields() filters.FieldSet {
	return filters.FieldSet{
		filters.FieldDate,
		filters.FieldInterval,
		filters.FieldRegion,
	}
}

func (t *LeadsTool) OutputSchema() protocol.JSONSchema {
	return protocol.JSONSchema{
		"type": "object",
		"properties": map[string]interface{}{
			"points": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"period": map[string]interface{}{"type": "string"},
						"leads":  map[string]interface{}{"type": "integer"},
						"trials": map[string]interface{}{"type": "integer"},
					},
				},
			},
		},
	}
}

func (t *LeadsTool) Execute(ctx context.Context, f filters.Filters) (tools.Result, error) {
	f.ApplyDefaultDate(t.now())

	payload, err := t.client.FetchReport(ctx, "leads", f.Values())
	if err != nil {
		return nil, err
	}

	var report leadsReport
	if err := json.Unmarshal(payload, &report); err != nil || len(report.Points) == 0 {
		var raw interface{}
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		return tools.RawResult{Value: raw}, nil
	}

	blocks := make([]string, 0, len(report.Points)+1)
	blocks = append(blocks, fmt.Sprintf("Leads for %s, per %s:", f.Date, f.Interval))
	for _, p := range report.Points {
		blocks = append(blocks, fmt.Sprintf("%s: %s leads, %s trials",
			p.Period, formatCount(p.Leads), formatCount(p.Trials)))
	}
	return tools.Text(blocks...), nil
}
