// Package mcp implements the dispatcher: the single choke point every
// protocol message passes through, whatever transport delivered it.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/revenuepulse/pulse-mcp/internal/filters"
	"github.com/revenuepulse/pulse-mcp/internal/logger"
	"github.com/revenuepulse/pulse-mcp/internal/tools"
	"github.com/revenuepulse/pulse-mcp/internal/upstream"
	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
	"github.com/revenuepulse/pulse-mcp/pkg/version"
)

var log = logger.ForComponent("mcp")

// Recorder receives one entry per tool invocation. Implementations must
// tolerate being called concurrently; a nil Recorder disables auditing.
type Recorder interface {
	Record(tool string, elapsed time.Duration, ok bool)
}

type Handler struct {
	registry *tools.Registry
	recorder Recorder
}

func NewHandler(registry *tools.Registry, recorder Recorder) *Handler {
	return &Handler{registry: registry, recorder: recorder}
}

// Handle routes one JSON-RPC request and always produces a response
// with either a result or an error object; no failure escapes to the
// transport layer.
func (h *Handler) Handle(ctx context.Context, req *protocol.Request) *protocol.Response {
	resp := &protocol.Response{
		JSONRPC: protocol.Version,
		ID:      req.ID,
	}

	switch req.Method {
	case "initialize":
		resp.Result = h.handleInitialize(req)
	case "ping":
		resp.Result = map[string]interface{}{}
	case "notifications/initialized":
		resp.Result = map[string]interface{}{}
	case "tools/list":
		resp.Result = protocol.ListToolsResult{Tools: h.registry.Descriptors()}
	case "tools/call":
		result, rpcErr := h.handleCallTool(ctx, req)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &protocol.Error{
			Code:    protocol.MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}

	return resp
}

func (h *Handler) handleInitialize(req *protocol.Request) interface{} {
	var initReq struct {
		ProtocolVersion string `json:"protocolVersion"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &initReq); err != nil {
			log.Debug("unparseable initialize params", "error", err)
		}
	}

	return map[string]interface{}{
		"protocolVersion": negotiateProtocolVersion(initReq.ProtocolVersion),
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "pulse-mcp",
			"version": version.Version,
		},
	}
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}
	return version.ProtocolVersion
}

func (h *Handler) handleCallTool(ctx context.Context, req *protocol.Request) (*protocol.CallResult, *protocol.Error) {
	var call protocol.CallToolParams
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return nil, &protocol.Error{
			Code:    protocol.InvalidParams,
			Message: "Invalid params",
			Data:    err.Error(),
		}
	}
	if call.Name == "" {
		return nil, &protocol.Error{
			Code:    protocol.InvalidParams,
			Message: "Invalid params",
			Data:    "tool name is required",
		}
	}

	tool, ok := h.registry.Get(call.Name)
	if !ok {
		return nil, &protocol.Error{
			Code:    protocol.MethodNotFound,
			Message: fmt.Sprintf("Unknown tool: %s", call.Name),
		}
	}

	args := map[string]interface{}{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, &protocol.Error{
				Code:    protocol.InvalidParams,
				Message: "Invalid params",
				Data:    "arguments must be an object",
			}
		}
	}

	validated, err := filters.Validate(args, tool.Fields())
	if err != nil {
		var verr *filters.ValidationError
		data := interface{}(err.Error())
		if errors.As(err, &verr) {
			data = map[string]string{"field": verr.Field, "reason": verr.Reason}
		}
		return nil, &protocol.Error{
			Code:    protocol.InvalidParams,
			Message: err.Error(),
			Data:    data,
		}
	}

	start := time.Now()
	result, err := h.execute(ctx, tool, validated)
	if h.recorder != nil {
		h.recorder.Record(call.Name, time.Since(start), err == nil)
	}
	if err != nil {
		return nil, executionError(err)
	}

	return wrap(result), nil
}

// execute runs the tool with panic recovery: a panicking execution
// function surfaces as an error at this boundary, never as a crash of
// the transport.
func (h *Handler) execute(ctx context.Context, tool tools.Tool, f filters.Filters) (result tools.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool execution panicked: %v", r)
			log.Error("tool panic recovered",
				"tool", tool.Name(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	return tool.Execute(ctx, f)
}

// executionError maps a tool failure onto the internal-error code,
// preserving upstream status and body detail.
func executionError(err error) *protocol.Error {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		return &protocol.Error{
			Code:    protocol.InternalError,
			Message: fmt.Sprintf("upstream request failed with status %d", statusErr.Code),
			Data: map[string]interface{}{
				"status": statusErr.Code,
				"body":   statusErr.Body,
			},
		}
	}
	return &protocol.Error{
		Code:    protocol.InternalError,
		Message: "Internal error",
		Data:    err.Error(),
	}
}

// wrap turns a tool result into the uniform content envelope. Text
// results pass through unchanged; raw values get serialized, one block
// per element for slices.
func wrap(result tools.Result) *protocol.CallResult {
	switch r := result.(type) {
	case tools.TextResult:
		return &protocol.CallResult{Content: r.Blocks}
	case tools.RawResult:
		return &protocol.CallResult{Content: rawBlocks(r.Value)}
	default:
		return &protocol.CallResult{Content: rawBlocks(result)}
	}
}

func rawBlocks(v interface{}) []protocol.ContentBlock {
	if items, ok := v.([]interface{}); ok {
		blocks := make([]protocol.ContentBlock, 0, len(items))
		for _, item := range items {
			blocks = append(blocks, protocol.TextBlock(serialize(item)))
		}
		return blocks
	}
	return []protocol.ContentBlock{protocol.TextBlock(serialize(v))}
}

func serialize(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
