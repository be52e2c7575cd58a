// Package sandbox provides an MCP server that exposes the MorpheusAI agents
// as tools. Every call goes through the same sandbox guards as the HTTP API.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// NewServer creates an MCP server over the supervisor. Tools are only
// registered for the agent kinds present in its registry; route_message is
// always available.
func NewServer(sup *router.Router) *server.MCPServer {
	s := server.NewMCPServer(
		"morpheus",
		Version,
		server.WithToolCapabilities(true),
	)
	h := &handlers{sup: sup}

	s.AddTool(mcp.NewTool("route_message",
		mcp.WithDescription("Routes a natural-language request to the best suited agent and returns its reply"),
		mcp.WithString("message", mcp.Required(), mcp.Description("The request to route")),
	), h.route)

	reg := sup.Registry()
	if _, ok := agent.As[agent.CommandRunner](reg, agent.KindCommand); ok {
		s.AddTool(mcp.NewTool("execute_command",
			mcp.WithDescription("Executes a shell command inside the command sandbox"),
			mcp.WithString("command", mcp.Required(), mcp.Description("The command line to run")),
		), h.execute)
	}

	if _, ok := agent.As[agent.FileEditor](reg, agent.KindFile); ok {
		s.AddTool(mcp.NewTool("file_read",
			mcp.WithDescription("Reads a file inside the editor sandbox"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the sandbox root")),
		), h.file(agent.OpRead))
		s.AddTool(mcp.NewTool("file_write",
			mcp.WithDescription("Writes a file inside the editor sandbox, creating parent directories"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the sandbox root")),
			mcp.WithString("content", mcp.Required(), mcp.Description("The new file content")),
		), h.file(agent.OpWrite))
		s.AddTool(mcp.NewTool("file_list",
			mcp.WithDescription("Lists a directory inside the editor sandbox"),
			mcp.WithString("path", mcp.Description("Directory relative to the sandbox root, defaults to the root")),
		), h.file(agent.OpList))
	}

	if _, ok := agent.As[agent.Navigator](reg, agent.KindBrowser); ok {
		s.AddTool(mcp.NewTool("browse_url",
			mcp.WithDescription("Opens a web page and returns its title and a text excerpt"),
			mcp.WithString("url", mcp.Required(), mcp.Description("The http or https URL to open")),
		), h.browse)
		s.AddTool(mcp.NewTool("web_search",
			mcp.WithDescription("Searches the web and returns the top results"),
			mcp.WithString("query", mcp.Required(), mcp.Description("The search query")),
		), h.search)
	}

	if _, ok := agent.As[agent.ToolInvoker](reg, agent.KindTool); ok {
		s.AddTool(mcp.NewTool("invoke_tool",
			mcp.WithDescription("Invokes a registered external API tool"),
			mcp.WithString("name", mcp.Required(), mcp.Description("The registered tool name")),
			mcp.WithObject("params", mcp.Description("Parameters for the tool")),
		), h.invoke)
		s.AddTool(mcp.NewTool("list_tools",
			mcp.WithDescription("Lists the registered external API tools"),
		), h.listTools)
	}

	return s
}

type handlers struct {
	sup *router.Router
}

func (h *handlers) route(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := h.sup.Dispatch(ctx, router.Request{Message: message})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(out.Result), nil
}

func (h *handlers) execute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	runner, _ := agent.As[agent.CommandRunner](h.sup.Registry(), agent.KindCommand)
	return toolResult(runner.Execute(ctx, command)), nil
}

func (h *handlers) file(op agent.FileOp) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := agent.FileRequest{
			Op:      op,
			Path:    request.GetString("path", ""),
			Content: request.GetString("content", ""),
		}
		if op != agent.OpList && req.Path == "" {
			return mcp.NewToolResultError("path argument is required"), nil
		}
		ed, _ := agent.As[agent.FileEditor](h.sup.Registry(), agent.KindFile)
		return toolResult(ed.Apply(ctx, req)), nil
	}
}

func (h *handlers) browse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nav, _ := agent.As[agent.Navigator](h.sup.Registry(), agent.KindBrowser)
	return toolResult(nav.Navigate(ctx, url)), nil
}

func (h *handlers) search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nav, _ := agent.As[agent.Navigator](h.sup.Registry(), agent.KindBrowser)
	return toolResult(nav.Search(ctx, query)), nil
}

func (h *handlers) invoke(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var params map[string]any
	if v, ok := request.GetArguments()["params"]; ok && v != nil {
		p, ok := v.(map[string]any)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("params must be an object, got %T", v)), nil
		}
		params = p
	}
	inv, _ := agent.As[agent.ToolInvoker](h.sup.Registry(), agent.KindTool)
	return toolResult(inv.Invoke(ctx, name, params)), nil
}

func (h *handlers) listTools(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inv, _ := agent.As[agent.ToolInvoker](h.sup.Registry(), agent.KindTool)
	return toolResult(inv.ListTools()), nil
}

// toolResult converts a worker Result. Structured data, when present, is
// appended as a second JSON text block.
func toolResult(r agent.Result) *mcp.CallToolResult {
	if !r.Success {
		msg := r.Content
		if r.Error != "" {
			msg = fmt.Sprintf("%s (%s)", r.Content, r.Error)
		}
		return mcp.NewToolResultError(msg)
	}
	res := mcp.NewToolResultText(r.Content)
	if len(r.Data) > 0 {
		if b, err := json.Marshal(r.Data); err == nil {
			res.Content = append(res.Content, mcp.NewTextContent(string(b)))
		}
	}
	return res
}
