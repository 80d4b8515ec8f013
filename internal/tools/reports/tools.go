// Package reports implements the analytics report tools. Each tool
// fronts one upstream report kind, shares the common filter surface,
// and shapes the raw payload into readable text blocks.
package reports

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/revenuepulse/pulse-mcp/internal/tools"
)

// Fetcher is the slice of the upstream client the report tools need.
type Fetcher interface {
	FetchReport(ctx context.Context, kind string, query url.Values) (json.RawMessage, error)
}

func GetTools(client Fetcher) []tools.Tool {
	now := time.Now
	return []tools.Tool{
		NewMRRTool(client, now),
		NewLeadsTool(client, now),
		NewCohortsTool(client, now),
	}
}
