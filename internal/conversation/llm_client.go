package conversation

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleTool      = "tool"
)

// ChatMessage is the provider-neutral message shape. Its JSON form matches
// the OpenAI-compatible chat completions wire format.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolFunctionCall `json:"function"`
}

// ToolFunctionCall carries the function name and its JSON-encoded arguments.
type ToolFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolParameter describes one named argument of a tool.
type ToolParameter struct {
	Name        string
	Type        string
	Description string
	Format      string
	Enum        []string
	Required    bool
}

// ToolDefinition declares a tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// JSONSchema renders the parameters as a JSON-schema object.
func (d ToolDefinition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	var required []string
	for _, p := range d.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Format != "" {
			prop["format"] = p.Format
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

const ToolChoiceAuto = "auto"

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// CompletionRequest is one call to the completion backend. System is sent
// ahead of Messages as the system prompt.
type CompletionRequest struct {
	System     string
	Messages   []ChatMessage
	Tools      []ToolDefinition
	ToolChoice string
}

// Completion is the assistant message returned by the backend.
type Completion struct {
	Message    ChatMessage
	Model      string
	Usage      TokenUsage
	StopReason string
}

// Completer is the completion backend used by the orchestrator.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// modelNamer is implemented by completers that know their model id ahead of
// a response, so failed calls can still be labelled in metrics.
type modelNamer interface {
	ModelID() string
}
