// Package protocol defines the JSON-RPC 2.0 wire types shared by every
// transport and by the dispatcher.
package protocol

import "encoding/json"

const Version = "2.0"

// JSON-RPC 2.0 error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Tool describes one entry of the catalog served by tools/list.
type Tool struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	InputSchema  JSONSchema `json:"inputSchema"`
	OutputSchema JSONSchema `json:"outputSchema,omitempty"`
}

// JSONSchema is the minimal subset needed to describe tool input and
// output shapes.
type JSONSchema map[string]interface{}

// ContentBlock is a single piece of tool output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the uniform envelope every successful tools/call
// response conforms to.
type CallResult struct {
	Content []ContentBlock `json:"content"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}
