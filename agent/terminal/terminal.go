package terminal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quickstar-ai/quickstar/agent"
)

var (
	assistantStyle = lipgloss.NewStyle().Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle      = lipgloss.NewStyle().Faint(true)
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Terminal is the interactive CLI front end. It implements agent.UI, so the
// same instance both reads user turns and renders everything the agent
// produces.
type Terminal struct {
	agent    *agent.Agent
	reader   *bufio.Reader
	streamed bool
}

// New creates a new Terminal instance. Wire it to the agent with SetAgent
// after construction; the agent needs the UI first.
func New() *Terminal {
	return &Terminal{
		reader: bufio.NewReader(os.Stdin),
	}
}

func (t *Terminal) SetAgent(a *agent.Agent) {
	t.agent = a
}

// Run starts the interactive terminal session. An optional initial prompt is
// processed before reading from stdin.
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	t.agent.StartConversation()

	if initialPrompt != "" {
		if err := t.agent.ProcessTurn(ctx, initialPrompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		userInput := strings.TrimSpace(scanner.Text())
		if userInput == "" {
			continue
		}

		if userInput == "/quit" || userInput == "/exit" {
			break
		}

		if err := t.agent.ProcessTurn(ctx, userInput); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (t *Terminal) PrintAssistantMessage(text string) {
	fmt.Printf("%s %s\n", assistantStyle.Render("🤖:"), text)
}

func (t *Terminal) PrintError(text string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+text))
}

func (t *Terminal) PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}

// StartStream prints the assistant prefix; deltas then flow inline through
// StreamContent. A stream that produced no deltas prints nothing.
func (t *Terminal) StartStream() {
	t.streamed = false
}

func (t *Terminal) StreamContent(chunk string) {
	if !t.streamed {
		fmt.Print(assistantStyle.Render("🤖:") + " ")
		t.streamed = true
	}
	fmt.Print(chunk)
}

func (t *Terminal) StopStream() {
	if t.streamed {
		fmt.Println()
		t.streamed = false
	}
}

func (t *Terminal) ShowToolCall(name string, args map[string]any) {
	fmt.Println(toolStyle.Render(fmt.Sprintf("Calling tool `%s` with args: %v", name, args)))
}

func (t *Terminal) ShowToolResult(name string, result string) {
	fmt.Println(toolStyle.Render(fmt.Sprintf("Tool `%s` output:", name)) + " " + result)
}

// WaitForUserApproval asks the human for a verdict on an approval-gated tool
// call. Anything other than y/yes is a denial and the raw input is passed
// back to the model as the denial reason.
func (t *Terminal) WaitForUserApproval(description string) (bool, string) {
	fmt.Printf("Approval required: %s\n", description)
	fmt.Print("Do you want to allow this? (y/n): ")

	answer, err := t.reader.ReadString('\n')
	if err != nil {
		return false, "failed to read user input"
	}
	answer = strings.TrimSpace(answer)
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		return true, ""
	}
	return false, answer
}
