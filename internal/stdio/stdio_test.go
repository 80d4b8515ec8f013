package stdio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenuepulse/pulse-mcp/internal/mcp"
	"github.com/revenuepulse/pulse-mcp/internal/tools"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

type pipeRWC struct {
	io.ReadCloser
	io.WriteCloser
}

func (p pipeRWC) Close() error {
	_ = p.ReadCloser.Close()
	return p.WriteCloser.Close()
}

type noopClientHandler struct{}

func (noopClientHandler) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}

// startTransport runs the server side over pipes and returns a
// jsonrpc2 client talking to it.
func startTransport(t *testing.T, handler *mcp.Handler) *jsonrpc2.Conn {
	t.Helper()

	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	transport := NewWithIO(handler, serverIn, serverOut)
	go func() { _ = transport.Run(ctx) }()

	stream := jsonrpc2.NewBufferedStream(
		pipeRWC{ReadCloser: clientIn, WriteCloser: clientOut},
		jsonrpc2.PlainObjectCodec{},
	)
	conn := jsonrpc2.NewConn(ctx, stream, noopClientHandler{})
	t.Cleanup(func() {
		conn.Close()
		cancel()
	})
	return conn
}

func TestListToolsOverStdio(t *testing.T) {
	registry := tools.NewRegistry()
	conn := startTransport(t, mcp.NewHandler(registry, nil))

	var result protocol.ListToolsResult
	err := conn.Call(context.Background(), "tools/list", nil, &result)
	require.NoError(t, err)
	assert.Empty(t, result.Tools)
}

func TestPingOverStdio(t *testing.T) {
	conn := startTransport(t, mcp.NewHandler(tools.NewRegistry(), nil))

	var result map[string]interface{}
	err := conn.Call(context.Background(), "ping", nil, &result)
	require.NoError(t, err)
}

func TestUnknownMethodOverStdio(t *testing.T) {
	conn := startTransport(t, mcp.NewHandler(tools.NewRegistry(), nil))

	var result interface{}
	err := conn.Call(context.Background(), "no/such/method", nil, &result)
	require.Error(t, err)

	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(protocol.MethodNotFound), rpcErr.Code)
}

func TestUnknownToolOverStdio(t *testing.T) {
	conn := startTransport(t, mcp.NewHandler(tools.NewRegistry(), nil))

	var result interface{}
	err := conn.Call(context.Background(), "tools/call",
		map[string]interface{}{"name": "getForecast"}, &result)
	require.Error(t, err)

	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, int64(protocol.MethodNotFound), rpcErr.Code)
}

func TestNotificationGetsNoReply(t *testing.T) {
	conn := startTransport(t, mcp.NewHandler(tools.NewRegistry(), nil))

	err := conn.Notify(context.Background(), "notifications/initialized", nil)
	require.NoError(t, err)

	// The connection stays healthy for subsequent calls.
	var result map[string]interface{}
	require.NoError(t, conn.Call(context.Background(), "ping", nil, &result))
}
