package tools

import (
	"context"
	"fmt"
	"log/slog"
)

// Tool defines the interface for any action the agent can take.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-Schema "parameters" object for the tool's
	// function descriptor.
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
	// Status feeds the post-tool-batch reminder; empty if not applicable.
	Status() string
}

// Source supplies tools whose catalog is not known until an asynchronous
// handshake completes, such as MCP servers. Discovery is kicked off at
// startup and awaited here the first time the catalog is needed.
type Source interface {
	Tools(ctx context.Context) ([]Tool, error)
}

// Registry holds all available tools. Registration order is significant: it
// determines the order of schemas in the outgoing request, and tools
// registered later appear more prominently to the model. Register the
// important ones last.
type Registry struct {
	order   []string
	tools   map[string]Tool
	sources []Source
	merged  bool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool at the end of the schema order.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// AddSource registers an asynchronous tool source. Its tools are merged in
// front of the built-ins (least prominent) on the first ActiveTools call.
func (r *Registry) AddSource(s Source) {
	r.sources = append(r.sources, s)
}

// ActiveTools returns every registered tool in schema order, merging
// asynchronous sources on first use. A source that fails discovery is
// logged and skipped; it is not retried, so one broken MCP server cannot
// stall every subsequent turn.
func (r *Registry) ActiveTools(ctx context.Context) []Tool {
	if !r.merged {
		r.mergeSources(ctx)
		r.merged = true
	}
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) mergeSources(ctx context.Context) {
	var discovered []string
	for _, src := range r.sources {
		ts, err := src.Tools(ctx)
		if err != nil {
			slog.Warn("tool source discovery failed, skipping", "error", err)
			continue
		}
		for _, t := range ts {
			if _, exists := r.tools[t.Name()]; exists {
				slog.Warn("duplicate tool name from source, keeping existing", "tool", t.Name())
				continue
			}
			r.tools[t.Name()] = t
			discovered = append(discovered, t.Name())
		}
	}
	r.order = append(discovered, r.order...)
}

// RunTool looks a tool up by exact name and executes it. Failures are data:
// unknown names, execution errors, and panics all come back as result
// strings so the orchestrator can always produce a tool-role response.
func (r *Registry) RunTool(ctx context.Context, name string, args map[string]any) (result string) {
	tool, ok := r.tools[name]
	if !ok {
		return "Tool not found"
	}
	defer func() {
		if rec := recover(); rec != nil {
			result = fmt.Sprintf("Error occurred while running tool '%s': %v", name, rec)
		}
	}()
	out, err := tool.Execute(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error occurred while running tool '%s': %s", name, err)
	}
	return out
}

// ToolStatus returns the named tool's status line for the reminder.
func (r *Registry) ToolStatus(name string) string {
	tool, ok := r.tools[name]
	if !ok {
		return "Tool not found"
	}
	return tool.Status()
}

// ExtractApprovalFlag splits raw model-supplied arguments into the
// need_user_approve flag and the arguments actually forwarded to the tool.
// The flag is read by the orchestrator, never by the tool itself.
func ExtractApprovalFlag(args map[string]any) (bool, map[string]any) {
	need := false
	if v, ok := args["need_user_approve"].(bool); ok {
		need = v
	}
	forwarded := make(map[string]any, len(args))
	for k, v := range args {
		if k != "need_user_approve" {
			forwarded[k] = v
		}
	}
	return need, forwarded
}
