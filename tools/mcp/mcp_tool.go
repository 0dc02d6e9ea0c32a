package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quickstar-ai/quickstar/errors"
	"github.com/quickstar-ai/quickstar/tools"
)

// Client manages the connection to a single MCP server subprocess. The
// subprocess is started and its tool catalog discovered in the background at
// construction time; Tools blocks until that handshake has finished, so
// startup never waits on external servers but the first schema listing may.
type Client struct {
	name  string
	cmd   *exec.Cmd
	conn  *mcpsdk.ClientSession
	tools []*Tool
	err   error
	ready chan struct{}
}

// NewClient starts the MCP server subprocess and kicks off tool discovery.
// It never blocks.
func NewClient(name, command string, args []string) *Client {
	c := &Client{name: name, ready: make(chan struct{})}
	go c.connect(command, args)
	return c
}

func (c *Client) connect(command string, args []string) {
	defer close(c.ready)

	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr

	mcpClient := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "quickstar", Version: "v1.0.0"}, nil)
	ctx := context.Background()
	conn, err := mcpClient.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		cmd.Process.Kill()
		c.err = errors.Wrapf(err, "failed to connect to MCP server '%s'", c.name)
		return
	}
	c.cmd = cmd
	c.conn = conn

	toolListParams := &mcpsdk.ListToolsParams{}
	for {
		toolList, err := conn.ListTools(ctx, toolListParams)
		if err != nil {
			cmd.Process.Kill()
			c.err = errors.Wrapf(err, "failed to list tools from MCP server '%s'", c.name)
			return
		}

		for _, t := range toolList.Tools {
			c.tools = append(c.tools, &Tool{
				client:      c,
				name:        t.Name,
				description: t.Description,
				inputSchema: t.InputSchema,
			})
		}

		if toolList.NextCursor == "" {
			break
		}
		toolListParams.Cursor = toolList.NextCursor
	}

	slog.Info("initialized MCP client", "server", c.name, "tools", len(c.tools))
}

// Tools implements tools.Source. It waits for the background handshake to
// finish and returns the discovered tools in catalog order.
func (c *Client) Tools(ctx context.Context) ([]tools.Tool, error) {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	out := make([]tools.Tool, len(c.tools))
	for i, t := range c.tools {
		out[i] = t
	}
	return out, nil
}

// Stop terminates the MCP server subprocess.
func (c *Client) Stop() error {
	<-c.ready
	if c.conn != nil {
		c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		return c.cmd.Process.Kill()
	}
	return nil
}

// Tool wraps a tool discovered from an MCP server so the dispatcher can
// treat it like any built-in.
type Tool struct {
	client      *Client
	name        string
	description string
	inputSchema any
}

func (t *Tool) Name() string { return t.name }

func (t *Tool) Description() string { return t.description }

// Parameters converts the server-supplied input schema into the plain
// JSON-Schema map the providers expect. An absent or unconvertible schema
// degrades to a generic object.
func (t *Tool) Parameters() map[string]any {
	generic := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	if t.inputSchema == nil {
		return generic
	}
	data, err := json.Marshal(t.inputSchema)
	if err != nil {
		return generic
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return generic
	}
	return schema
}

func (t *Tool) Status() string { return "" }

// Execute sends the call to the MCP server and concatenates the text
// content of the result.
func (t *Tool) Execute(ctx context.Context, args map[string]any) (string, error) {
	result, err := t.client.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.name,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to call tool '%s'", t.name)
	}
	op := ""
	for _, c := range result.Content {
		if text, ok := c.(*mcpsdk.TextContent); ok {
			op += text.Text
		}
	}
	return op, nil
}
