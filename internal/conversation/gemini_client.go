package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiCompleter implements Completer using Gemini function calling.
type GeminiCompleter struct {
	client  *genai.Client
	modelID string
}

// NewGeminiCompleter creates a new Gemini completer.
func NewGeminiCompleter(ctx context.Context, apiKey, modelID string) (*GeminiCompleter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create gemini client: %w", err)
	}

	return &GeminiCompleter{
		client:  client,
		modelID: modelID,
	}, nil
}

func (c *GeminiCompleter) ModelID() string { return c.modelID }

// Complete sends the conversation to Gemini and maps function calls back to
// ToolCalls.
func (c *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	model := c.client.GenerativeModel(c.modelID)
	if strings.TrimSpace(req.System) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{geminiTool(req.Tools)}
		if req.ToolChoice == ToolChoiceAuto {
			model.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
			}
		}
	}

	history, err := geminiContents(req.Messages)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errors.New("conversation: gemini requires at least one message")
	}

	// The final content is sent; everything before it is chat history.
	cs := model.StartChat()
	cs.History = history[:len(history)-1]
	last := history[len(history)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini completion failed: %v", ErrUpstream, err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no candidates", ErrUpstream)
	}

	candidate := resp.Candidates[0]
	msg := ChatMessage{Role: ChatRoleAssistant}
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				text.WriteString(string(p))
			case genai.FunctionCall:
				args, err := json.Marshal(p.Args)
				if err != nil {
					return nil, fmt.Errorf("%w: gemini function args: %v", ErrUpstream, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, ToolCall{
					ID:       "call_" + uuid.NewString(),
					Type:     "function",
					Function: ToolFunctionCall{Name: p.Name, Arguments: string(args)},
				})
			}
		}
	}
	msg.Content = strings.TrimSpace(text.String())

	result := &Completion{
		Message:    msg,
		Model:      c.modelID,
		StopReason: candidate.FinishReason.String(),
	}
	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiCompleter) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func geminiTool(defs []ToolDefinition) *genai.Tool {
	tool := &genai.Tool{}
	for _, def := range defs {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(def.Parameters)),
		}
		for _, p := range def.Parameters {
			schema.Properties[p.Name] = &genai.Schema{
				Type:        geminiType(p.Type),
				Format:      p.Format,
				Description: p.Description,
				Enum:        p.Enum,
			}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  schema,
		})
	}
	return tool
}

func geminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func geminiContents(msgs []ChatMessage) ([]*genai.Content, error) {
	var out []*genai.Content
	for _, msg := range msgs {
		switch msg.Role {
		case ChatRoleSystem:
			continue
		case ChatRoleUser:
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			out = append(out, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		case ChatRoleAssistant:
			var parts []genai.Part
			if strings.TrimSpace(msg.Content) != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				args, err := decodeToolArguments(call.Function.Arguments)
				if err != nil {
					return nil, err
				}
				parts = append(parts, genai.FunctionCall{Name: call.Function.Name, Args: args})
			}
			if len(parts) == 0 {
				continue
			}
			out = append(out, &genai.Content{Role: "model", Parts: parts})
		case ChatRoleTool:
			out = append(out, &genai.Content{
				Role: "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     msg.Name,
					Response: geminiToolResponse(msg.Content),
				}},
			})
		default:
			return nil, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}
	return out, nil
}

// geminiToolResponse turns a tool's JSON result into the object Gemini
// expects. Non-object results are wrapped under "result".
func geminiToolResponse(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	var anyValue any
	if err := json.Unmarshal([]byte(content), &anyValue); err == nil {
		return map[string]any{"result": anyValue}
	}
	return map[string]any{"result": content}
}
