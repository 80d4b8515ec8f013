// Package filters defines the query filter surface shared by every
// report tool: which fields exist, how they are validated, and how they
// are serialized for the upstream API. Each tool's JSON input schema is
// derived from the same field definitions, so the catalog can never
// drift from what validation actually accepts.
package filters

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// Field names accepted across the report tools.
const (
	FieldDate          = "date"
	FieldInterval      = "interval"
	FieldRegion        = "region"
	FieldCurrency      = "currency"
	FieldBillingFreq   = "billing_freq"
	FieldPaymentMethod = "payment_method"
	FieldAge           = "age"
)

const DefaultInterval = "month"

// datePattern accepts a yyyyMMdd-yyyyMMdd range. Chronological order
// and calendar validity are deliberately not checked.
var datePattern = regexp.MustCompile(`^\d{8}-\d{8}$`)

var (
	intervals    = []string{"day", "week", "month", "quarter", "year"}
	regions      = []string{"europe", "asia", "north_america", "emea", "apac"}
	billingFreqs = []string{"week", "month", "quarter", "year"}
)

// ValidationError reports a single offending field. Validation is
// all-or-nothing: the first failing field aborts the whole request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Filters holds the validated query constraints for one report call.
// Zero-value string fields mean the caller omitted them.
type Filters struct {
	Date          string
	Interval      string
	Region        string
	Currency      string
	BillingFreq   string
	PaymentMethod string
	Age           string
}

// FieldSet is the ordered list of fields a tool accepts.
type FieldSet []string

func (fs FieldSet) contains(name string) bool {
	for _, f := range fs {
		if f == name {
			return true
		}
	}
	return false
}

// Validate checks raw tool arguments against the given field set and
// returns the typed filters. Unknown fields are rejected, enum fields
// must be in their closed set, and no filter is applied unless every
// field passes.
func Validate(raw map[string]interface{}, allowed FieldSet) (Filters, error) {
	var f Filters

	for name, value := range raw {
		if !allowed.contains(name) {
			return Filters{}, &ValidationError{Field: name, Reason: "unknown field"}
		}

		s, ok := value.(string)
		if !ok {
			return Filters{}, &ValidationError{Field: name, Reason: "must be a string"}
		}

		switch name {
		case FieldDate:
			if !datePattern.MatchString(s) {
				return Filters{}, &ValidationError{Field: name, Reason: "must match yyyyMMdd-yyyyMMdd"}
			}
			f.Date = s
		case FieldInterval:
			if !inSet(s, intervals) {
				return Filters{}, enumError(name, intervals)
			}
			f.Interval = s
		case FieldRegion:
			if !inSet(s, regions) {
				return Filters{}, enumError(name, regions)
			}
			f.Region = s
		case FieldCurrency:
			if len(s) != 3 {
				return Filters{}, &ValidationError{Field: name, Reason: "must be a 3-letter code"}
			}
			f.Currency = s
		case FieldBillingFreq:
			if !inSet(s, billingFreqs) {
				return Filters{}, enumError(name, billingFreqs)
			}
			f.BillingFreq = s
		case FieldPaymentMethod:
			f.PaymentMethod = s
		case FieldAge:
			f.Age = s
		}
	}

	if f.Interval == "" {
		f.Interval = DefaultInterval
	}

	return f, nil
}

// ApplyDefaultDate fills in the date range when the caller omitted it:
// the 365 days ending at now, in yyyyMMdd-yyyyMMdd form.
func (f *Filters) ApplyDefaultDate(now time.Time) {
	if f.Date != "" {
		return
	}
	start := now.AddDate(0, 0, -365)
	f.Date = start.Format("20060102") + "-" + now.Format("20060102")
}

// Values serializes the present fields as upstream query parameters.
// Absent fields are omitted entirely; no empty-string parameters.
func (f Filters) Values() url.Values {
	q := url.Values{}
	set := func(name, v string) {
		if v != "" {
			q.Set(name, v)
		}
	}
	set(FieldDate, f.Date)
	set(FieldInterval, f.Interval)
	set(FieldRegion, f.Region)
	set(FieldCurrency, f.Currency)
	set(FieldBillingFreq, f.BillingFreq)
	set(FieldPaymentMethod, f.PaymentMethod)
	set(FieldAge, f.Age)
	return q
}

func inSet(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func enumError(field string, set []string) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("must be one of %v", set)}
}
