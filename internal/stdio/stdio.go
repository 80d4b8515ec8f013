// Package stdio runs the dispatcher over newline-delimited JSON-RPC on
// stdin/stdout, for clients that spawn the server as a subprocess.
package stdio

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/revenuepulse/pulse-mcp/internal/logger"
	"github.com/revenuepulse/pulse-mcp/internal/mcp"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

var log = logger.ForComponent("stdio")

type Transport struct {
	handler *mcp.Handler
	in      io.ReadCloser
	out     io.WriteCloser
}

func New(handler *mcp.Handler) *Transport {
	return &Transport{handler: handler, in: os.Stdin, out: os.Stdout}
}

// NewWithIO is used by tests to run the transport over pipes.
func NewWithIO(handler *mcp.Handler, in io.ReadCloser, out io.WriteCloser) *Transport {
	return &Transport{handler: handler, in: in, out: out}
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }

func (s *stdioReadWriteCloser) Close() error {
	rerr := s.reader.Close()
	werr := s.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// Run serves until the peer disconnects or ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	rwc := &stdioReadWriteCloser{reader: t.in, writer: t.out}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(&rpcBridge{handler: t.handler}))

	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

// rpcBridge adapts jsonrpc2's handler model to the dispatcher.
type rpcBridge struct {
	handler *mcp.Handler
}

func (b *rpcBridge) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var params json.RawMessage
	if req.Params != nil {
		params = *req.Params
	}

	resp := b.handler.Handle(ctx, &protocol.Request{
		JSONRPC: protocol.Version,
		Method:  req.Method,
		Params:  params,
	})

	if req.Notif {
		return
	}

	if resp.Error != nil {
		rpcErr := &jsonrpc2.Error{
			Code:    int64(resp.Error.Code),
			Message: resp.Error.Message,
		}
		if resp.Error.Data != nil {
			if data, err := json.Marshal(resp.Error.Data); err == nil {
				raw := json.RawMessage(data)
				rpcErr.Data = &raw
			}
		}
		if err := conn.ReplyWithError(ctx, req.ID, rpcErr); err != nil {
			log.Error("failed to send error reply", "error", err)
		}
		return
	}

	if err := conn.Reply(ctx, req.ID, resp.Result); err != nil {
		log.Error("failed to send reply", "error", err)
	}
}
