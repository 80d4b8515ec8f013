package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

// readEvent consumes one "event:"/"data:" pair from the stream,
// skipping keep-alive comments and blank separators.
func readEvent(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
			return event, data
		}
	}
}

func TestSSERoundTrip(t *testing.T) {
	s := newTestServer(t, Config{}, okAnalytics)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sse")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	stream := bufio.NewReader(resp.Body)

	event, endpoint := readEvent(t, stream)
	require.Equal(t, "endpoint", event)
	require.True(t, strings.HasPrefix(endpoint, "/message?session_id="), "endpoint %q", endpoint)

	body, _ := json.Marshal(protocol.Request{JSONRPC: "2.0", ID: 7, Method: "tools/list"})
	post, err := http.Post(ts.URL+endpoint, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusAccepted, post.StatusCode)

	event, data := readEvent(t, stream)
	require.Equal(t, "message", event)

	var rpc struct {
		ID     float64                  `json:"id"`
		Result protocol.ListToolsResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &rpc))
	assert.Equal(t, float64(7), rpc.ID)
	assert.Len(t, rpc.Result.Tools, 3)
}

func TestSSEParseErrorStreamsResponse(t *testing.T) {
	s := newTestServer(t, Config{}, okAnalytics)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sse")
	require.NoError(t, err)
	defer resp.Body.Close()

	stream := bufio.NewReader(resp.Body)
	_, endpoint := readEvent(t, stream)

	post, err := http.Post(ts.URL+endpoint, "application/json", strings.NewReader(`{broken`))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusAccepted, post.StatusCode)

	event, data := readEvent(t, stream)
	require.Equal(t, "message", event)

	var rpc protocol.Response
	require.NoError(t, json.Unmarshal([]byte(data), &rpc))
	require.NotNil(t, rpc.Error)
	assert.Equal(t, protocol.ParseError, rpc.Error.Code)
}

func TestNotificationProducesNoStreamEvent(t *testing.T) {
	s := newTestServer(t, Config{}, okAnalytics)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sse")
	require.NoError(t, err)
	defer resp.Body.Close()

	stream := bufio.NewReader(resp.Body)
	_, endpoint := readEvent(t, stream)

	post, err := http.Post(ts.URL+endpoint, "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusAccepted, post.StatusCode)

	// The next event on the stream must answer the follow-up call, not
	// the notification.
	body, _ := json.Marshal(protocol.Request{JSONRPC: "2.0", ID: 9, Method: "ping"})
	post, err = http.Post(ts.URL+endpoint, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	post.Body.Close()

	event, data := readEvent(t, stream)
	require.Equal(t, "message", event)

	var rpc struct {
		ID float64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &rpc))
	assert.Equal(t, float64(9), rpc.ID)
}

func TestMessageForUnknownSession(t *testing.T) {
	s := newTestServer(t, Config{}, okAnalytics)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	post, err := http.Post(ts.URL+"/message?session_id=nope", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusBadRequest, post.StatusCode)
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := newSessionStore()
	sess := &sseSession{
		id:       "abc",
		messages: make(chan *protocol.Response, 1),
		done:     make(chan struct{}),
	}
	store.add(sess)

	got, ok := store.get("abc")
	require.True(t, ok)
	assert.Same(t, sess, got)

	store.remove("abc")
	_, ok = store.get("abc")
	assert.False(t, ok)
}

func TestPushAfterClose(t *testing.T) {
	sess := &sseSession{
		id:       "gone",
		messages: make(chan *protocol.Response),
		done:     make(chan struct{}),
	}
	close(sess.done)

	finished := make(chan struct{})
	go func() {
		sess.push(&protocol.Response{JSONRPC: protocol.Version})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("push blocked on closed session")
	}
}
