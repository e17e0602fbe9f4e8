// Package mcpserver serves the question gate as an MCP tool over the official
// MCP Go SDK, so MCP clients can ask physics questions through the same gate
// as every other frontend.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/germanamz/physbot/pkg/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolName is the name of the single tool the server exposes.
const ToolName = "ask_physics"

const toolDescription = "Answer a physics question. Questions outside physics are refused without contacting the model."

var inputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "question": {"type": "string", "description": "The physics question to answer."}
  },
  "required": ["question"]
}`)

// Asker answers one raw question. *engine.Engine satisfies it.
type Asker interface {
	Handle(ctx context.Context, raw string) engine.Reply
}

// MCPServer serves the ask tool over the MCP protocol.
type MCPServer struct {
	server *mcp.Server
}

// New creates an MCPServer with the given name and version whose ask tool is
// backed by asker.
func New(name, version string, asker Asker) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	server.AddTool(&mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: inputSchema,
	}, askHandler(asker))

	return &MCPServer{server: server}
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run starts the server with the given transport. Tests call it directly with
// an in-memory transport.
func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

type askArgs struct {
	Question string `json:"question"`
}

// askHandler maps a Reply onto a tool result. Empty and failed outcomes are
// tool errors; a gate refusal is a normal result carrying the refusal text.
func askHandler(asker Asker) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args askArgs
		if raw := req.Params.Arguments; len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return textResult("invalid arguments: "+err.Error(), true), nil
			}
		}

		reply := asker.Handle(ctx, args.Question)

		isError := reply.Outcome == engine.OutcomeEmpty || reply.Outcome == engine.OutcomeFailed

		return textResult(reply.Text, isError), nil
	}
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
