package sandbox

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServer_MCPClient drives the server over stdio pipes with the
// modelcontextprotocol go-sdk client.
func TestServer_MCPClient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stdioServer := server.NewStdioServer(NewServer(newSupervisor(t)))

	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- stdioServer.Listen(ctx, serverReader, serverWriter)
	}()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.IOTransport{
		Reader: clientReader,
		Writer: clientWriter,
	}, nil)
	require.NoError(t, err, "failed to connect client to server")
	defer session.Close()

	listResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range listResult.Tools {
		names[tool.Name] = true
	}
	assert.True(t, names["route_message"])
	assert.True(t, names["execute_command"])
	assert.False(t, names["browse_url"])

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		isError bool
		want    string
	}{
		{
			name: "command",
			tool: "execute_command",
			args: map[string]any{"command": "echo over-mcp"},
			want: "over-mcp",
		},
		{
			name:    "blocked command",
			tool:    "execute_command",
			args:    map[string]any{"command": "rm -rf /"},
			isError: true,
			want:    "Command blocked for security reasons",
		},
		{
			name: "write file",
			tool: "file_write",
			args: map[string]any{"path": "hello.md", "content": "# hi\n"},
			want: "File written successfully: hello.md",
		},
		{
			name: "routed listing",
			tool: "route_message",
			args: map[string]any{"message": "list files in the current directory"},
			want: "[Terminal Agent]: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      tt.tool,
				Arguments: tt.args,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			require.NotEmpty(t, result.Content)

			textContent, ok := result.Content[0].(*sdkmcp.TextContent)
			require.True(t, ok, "content should be TextContent")
			assert.Contains(t, textContent.Text, tt.want)
		})
	}

	cancel()
	clientWriter.Close()
	serverWriter.Close()
}
