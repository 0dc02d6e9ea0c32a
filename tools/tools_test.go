package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickstar-ai/quickstar/errors"
)

type stubTool struct {
	name    string
	result  string
	err     error
	panics  bool
	status  string
	gotArgs map[string]any
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub" }
func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s *stubTool) Status() string             { return s.status }

func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	s.gotArgs = args
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

type stubSource struct {
	tools []Tool
	err   error
	calls int
}

func (s *stubSource) Tools(ctx context.Context) ([]Tool, error) {
	s.calls++
	return s.tools, s.err
}

func TestRunToolNotFound(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "Tool not found", r.RunTool(context.Background(), "missing", nil))
}

func TestRunToolExecutionError(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "flaky", err: errors.New("disk on fire")})

	got := r.RunTool(context.Background(), "flaky", nil)
	assert.Contains(t, got, "Error occurred while running tool 'flaky'")
	assert.Contains(t, got, "disk on fire")
}

func TestRunToolRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "crashy", panics: true})

	got := r.RunTool(context.Background(), "crashy", nil)
	assert.Contains(t, got, "Error occurred while running tool 'crashy'")
	assert.Contains(t, got, "boom")
}

func TestRunToolForwardsArgs(t *testing.T) {
	r := NewRegistry()
	tool := &stubTool{name: "echo", result: "ok"}
	r.Register(tool)

	args := map[string]any{"key": "value"}
	assert.Equal(t, "ok", r.RunTool(context.Background(), "echo", args))
	assert.Equal(t, args, tool.gotArgs)
}

func TestActiveToolsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "first"})
	r.Register(&stubTool{name: "second"})
	r.Register(&stubTool{name: "third"})

	active := r.ActiveTools(context.Background())
	require.Len(t, active, 3)
	assert.Equal(t, "first", active[0].Name())
	assert.Equal(t, "second", active[1].Name())
	assert.Equal(t, "third", active[2].Name())
}

func TestActiveToolsMergesSourcesInFront(t *testing.T) {
	r := NewRegistry()
	src := &stubSource{tools: []Tool{&stubTool{name: "remote"}}}
	r.AddSource(src)
	r.Register(&stubTool{name: "builtin"})

	active := r.ActiveTools(context.Background())
	require.Len(t, active, 2)
	assert.Equal(t, "remote", active[0].Name())
	assert.Equal(t, "builtin", active[1].Name())

	// Merge happens once; later calls reuse the discovered catalog.
	r.ActiveTools(context.Background())
	assert.Equal(t, 1, src.calls)
}

func TestActiveToolsSkipsFailedSource(t *testing.T) {
	r := NewRegistry()
	r.AddSource(&stubSource{err: errors.New("server gone")})
	r.Register(&stubTool{name: "builtin"})

	active := r.ActiveTools(context.Background())
	require.Len(t, active, 1)
	assert.Equal(t, "builtin", active[0].Name())
}

func TestActiveToolsDuplicateFromSource(t *testing.T) {
	r := NewRegistry()
	local := &stubTool{name: "shared", result: "local"}
	r.Register(local)
	r.AddSource(&stubSource{tools: []Tool{&stubTool{name: "shared", result: "remote"}}})

	active := r.ActiveTools(context.Background())
	require.Len(t, active, 1)
	assert.Equal(t, "local", r.RunTool(context.Background(), "shared", nil))
}

func TestToolStatus(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "stateful", status: "3 items"})

	assert.Equal(t, "3 items", r.ToolStatus("stateful"))
	assert.Equal(t, "Tool not found", r.ToolStatus("missing"))
}

func TestExtractApprovalFlag(t *testing.T) {
	need, forwarded := ExtractApprovalFlag(map[string]any{
		"need_user_approve": true,
		"command":           "rm -rf /tmp/x",
	})
	assert.True(t, need)
	assert.Equal(t, map[string]any{"command": "rm -rf /tmp/x"}, forwarded)

	need, forwarded = ExtractApprovalFlag(map[string]any{"command": "ls"})
	assert.False(t, need)
	assert.Equal(t, map[string]any{"command": "ls"}, forwarded)

	// A non-boolean flag value is treated as absent but still stripped.
	need, forwarded = ExtractApprovalFlag(map[string]any{"need_user_approve": "yes"})
	assert.False(t, need)
	assert.Empty(t, forwarded)
}
