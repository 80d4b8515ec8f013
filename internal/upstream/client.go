// Package upstream provides the client for the analytics reports API.
// Each tool invocation maps to exactly one authenticated GET; there is
// no retry, caching, or client-side timeout beyond what the caller's
// context imposes.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrMissingToken is returned when no bearer credential is configured.
// It is a configuration error and is raised before any network attempt.
var ErrMissingToken = errors.New("upstream: API token not configured")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %s: %s", e.Status, e.Body)
}

// DecodeError reports an upstream body that was not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("upstream body is not valid JSON: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the given base URL. An empty token is a
// fatal configuration error, surfaced here so it is hit at startup
// rather than on the first tool call.
func New(baseURL, token string, httpClient *http.Client) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}, nil
}

// FetchReport performs one GET against /reports/{kind} with the given
// query parameters and returns the raw JSON payload. Any non-2xx status
// is a *StatusError carrying the body text; a 2xx body that is not JSON
// is a *DecodeError.
func (c *Client) FetchReport(ctx context.Context, kind string, query url.Values) (json.RawMessage, error) {
	reqURL := c.baseURL + "/reports/" + url.PathEscape(kind)
	if enc := query.Encode(); enc != "" {
		reqURL += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	if !json.Valid(body) {
		return nil, &DecodeError{Err: fmt.Errorf("invalid JSON in %d-byte body", len(body))}
	}

	return json.RawMessage(body), nil
}
