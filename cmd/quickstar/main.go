package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/quickstar-ai/quickstar/agent"
	"github.com/quickstar-ai/quickstar/agent/terminal"
	"github.com/quickstar-ai/quickstar/config"
	"github.com/quickstar-ai/quickstar/llm"
	"github.com/quickstar-ai/quickstar/session"
	"github.com/quickstar-ai/quickstar/tools"
	"github.com/quickstar-ai/quickstar/tools/mcp"
)

func main() {
	verboseFlag := flag.Bool("v", false, "Enable verbose (debug) logging")
	flag.Parse()

	setupLogging(*verboseFlag)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing LLM client: %+v\n", err)
		os.Exit(1)
	}

	history := session.NewManager(cfg.MaxTokens(), cfg.CompressThreshold)
	registry := tools.NewRegistry()

	term := terminal.New()
	quickstarAgent := agent.New(cfg, history, registry, client, term)
	term.SetAgent(quickstarAgent)

	// MCP sources are added first so built-in tools, registered after,
	// appear lower in the schema where models weight them more.
	var mcpClients []*mcp.Client
	for _, server := range cfg.MCPServers {
		mcpClient := mcp.NewClient(server.Name, server.Command, server.Args)
		mcpClients = append(mcpClients, mcpClient)
		registry.AddSource(mcpClient)
	}
	defer func() {
		for _, c := range mcpClients {
			if err := c.Stop(); err != nil {
				slog.Warn("failed to stop MCP client", "error", err)
			}
		}
	}()

	registry.Register(tools.NewContextCropperTool(history))
	registry.Register(tools.NewTodoWriteTool())
	registry.Register(tools.NewTaskTool(quickstarAgent))
	registry.Register(tools.NewCmdRunnerTool(cfg.AllowedCommands))
	registry.Register(tools.NewReadFileTool(&cfg.FilesystemAccess))
	registry.Register(tools.NewWriteFileTool(&cfg.FilesystemAccess))

	initialPrompt := strings.Join(flag.Args(), " ")

	fmt.Println("Quickstar is ready. Type your prompt.")
	if err := term.Run(ctx, initialPrompt); err != nil {
		fmt.Fprintf(os.Stderr, "Agent stopped with an error: %+v\n", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// newLLMClient selects the provider from config. An unset or unknown
// provider falls back to the mock client so the CLI can be exercised without
// credentials.
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMClient {
	case "openai":
		return llm.NewOpenAILLMClient(ctx, cfg.Model)
	case "anthropic":
		return llm.NewAnthropicLLMClient(ctx, cfg.Model)
	case "gemini":
		return llm.NewGeminiLLMClient(ctx, cfg.Model)
	case "bedrock":
		return llm.NewBedrockLLMClient(ctx, cfg.Model)
	default:
		slog.Warn("no LLM provider configured, using mock client", "llm", cfg.LLMClient)
		return &llm.MockLLMClient{}, nil
	}
}
