package filters

import "github.com/revenuepulse/pulse-mcp/pkg/protocol"

// fieldSchemas is the single source of truth for how each filter field
// is described in a tool's inputSchema. Both transports serve catalogs
// derived from here, so the advertised shape always matches what
// Validate enforces.
var fieldSchemas = map[string]protocol.JSONSchema{
	FieldDate: {
		"type":        "string",
		"pattern":     `^\d{8}-\d{8}$`,
		"description": "Inclusive date range as yyyyMMdd-yyyyMMdd. Defaults to the last 365 days.",
	},
	FieldInterval: {
		"type":        "string",
		"enum":        intervals,
		"description": "Aggregation interval. Defaults to month.",
	},
	FieldRegion: {
		"type":        "string",
		"enum":        regions,
		"description": "Restrict the report to one sales region.",
	},
	FieldCurrency: {
		"type":        "string",
		"minLength":   3,
		"maxLength":   3,
		"description": "3-letter currency code.",
	},
	FieldBillingFreq: {
		"type":        "string",
		"enum":        billingFreqs,
		"description": "Restrict to subscriptions billed at this frequency.",
	},
	FieldPaymentMethod: {
		"type":        "string",
		"description": "Restrict to a payment method (free text).",
	},
	FieldAge: {
		"type":        "string",
		"description": "Restrict to a customer age group (free text).",
	},
}

// Schema derives a JSON input schema for a tool accepting the given
// field set. Every field is optional.
func Schema(allowed FieldSet) protocol.JSONSchema {
	props := map[string]interface{}{}
	for _, name := range allowed {
		props[name] = fieldSchemas[name]
	}
	return protocol.JSONSchema{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}
