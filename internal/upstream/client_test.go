package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestNewRequiresToken(t *testing.T) {
	_, err := New("https://example.com", "", nil)
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestFetchReportRequestShape(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"points":[]}`))
	}))
	defer ts.Close()

	client, err := New(ts.URL, "secret", nil)
	if err != nil {
		t.Fatal(err)
	}

	q := url.Values{}
	q.Set("date", "20240101-20240201")
	q.Set("interval", "month")
	q.Set("region", "europe")

	payload, err := client.FetchReport(context.Background(), "leads", q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != `{"points":[]}` {
		t.Errorf("unexpected payload: %s", payload)
	}
	if gotPath != "/reports/leads" {
		t.Errorf("unexpected path: %q", gotPath)
	}
	if gotQuery != "date=20240101-20240201&interval=month&region=europe" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected authorization header: %q", gotAuth)
	}
}

func TestFetchReportStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("rate limited"))
	}))
	defer ts.Close()

	client, _ := New(ts.URL, "secret", nil)
	_, err := client.FetchReport(context.Background(), "mrr", nil)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("expected code 500, got %d", statusErr.Code)
	}
	if statusErr.Body != "rate limited" {
		t.Errorf("expected body to carry upstream text, got %q", statusErr.Body)
	}
}

func TestFetchReportDecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	client, _ := New(ts.URL, "secret", nil)
	_, err := client.FetchReport(context.Background(), "mrr", nil)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestFetchReportOmitsEmptyQuery(t *testing.T) {
	var gotURL string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client, _ := New(ts.URL, "secret", nil)
	if _, err := client.FetchReport(context.Background(), "cohort", url.Values{}); err != nil {
		t.Fatal(err)
	}
	if gotURL != "/reports/cohort" {
		t.Errorf("expected bare path without query, got %q", gotURL)
	}
}
