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

// mrrReport is the upstream payload shape for /reports/mrr.
type mrrReport struct {
	Currency string     `json:"currency"`
	Points   []mrrPoint `json:"points"`
}

type mrrPoint struct {
	Period string  `json:"period"`
	Amount float64 `json:"amount"`
}

type MRRTool struct {
	client Fetcher
	now    func() time.Time
}

func NewMRRTool(client Fetcher, now func() time.Time) *MRRTool {
	return &MRRTool{client: client, now: now}
}

func (t *MRRTool) Name() string {
	return "getMRR"
}

func (t *MRRTool) Description() string {
	return "Monthly recurring revenue over a date range, aggregated per interval. Supports region, currency, billing frequency and payment method filters."
}

func (t *MRRTool) Fields() filters.FieldSet {
	return filters.FieldSet{
		filters.FieldDate,
		filters.FieldInterval,
		filters.FieldRegion,
		filters.FieldCurrency,
		filters.FieldBillingFreq,
		filters.FieldPaymentMethod,
	}
}

func (t *MRRTool) OutputSchema() protocol.JSONSchema {
	return protocol.JSONSchema{
		"type": "object",
		"properties": map[string]interface{}{
			"currency": map[string]interface{}{"type": "string"},
			"points": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"period": map[string]interface{}{"type": "string"},
						"amount": map[string]interface{}{"type": "number"},
					},
				},
			},
		},
	}
}

func (t *MRRTool) Execute(ctx context.Context, f filters.Filters) (tools.Result, error) {
	f.ApplyDefaultDate(t.now())

	payload, err := t.client.FetchReport(ctx, "mrr", f.Values())
	if err != nil {
		return nil, err
	}

	var report mrrReport
	if err := json.Unmarshal(payload, &report); err != nil || len(report.Points) == 0 {
		// Unexpected shape: pass the raw payload through and let the
		// dispatcher wrap it.
		var raw interface{}
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		return tools.RawResult{Value: raw}, nil
	}

	blocks := make([]string, 0, len(report.Points)+1)
	blocks = append(blocks, fmt.Sprintf("MRR for %s, per %s:", f.Date, f.Interval))
	for _, p := range report.Points {
		blocks = append(blocks, fmt.Sprintf("%s: %s", p.Period, formatAmount(report.Currency, p.Amount)))
	}
	return tools.Text(blocks...), nil
}
