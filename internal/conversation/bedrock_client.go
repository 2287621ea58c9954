package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockCompleter implements Completer on the Bedrock Converse API using
// toolUse/toolResult content blocks.
type BedrockCompleter struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockCompleter(api bedrockConverseAPI, modelID string) *BedrockCompleter {
	if api == nil {
		panic("conversation: bedrock converse client cannot be nil")
	}
	return &BedrockCompleter{api: api, modelID: strings.TrimSpace(modelID)}
}

func (c *BedrockCompleter) ModelID() string { return c.modelID }

func (c *BedrockCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if c.modelID == "" {
		return nil, fmt.Errorf("%w: bedrock model id is required", ErrMissingAPIKey)
	}

	var systemBlocks []brtypes.SystemContentBlock
	if strings.TrimSpace(req.System) != "" {
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: req.System})
	}

	messages, err := bedrockMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.modelID),
		System:   systemBlocks,
		Messages: messages,
	}
	if len(req.Tools) > 0 {
		input.ToolConfig = bedrockToolConfig(req.Tools, req.ToolChoice)
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: bedrock converse: %v", ErrUpstream, err)
	}

	msg, err := bedrockOutputMessage(out)
	if err != nil {
		return nil, err
	}

	resp := &Completion{Message: msg, Model: c.modelID}
	if out.StopReason != "" {
		resp.StopReason = string(out.StopReason)
	}
	if out.Usage != nil {
		resp.Usage = TokenUsage{
			InputTokens:  int32OrZero(out.Usage.InputTokens),
			OutputTokens: int32OrZero(out.Usage.OutputTokens),
			TotalTokens:  int32OrZero(out.Usage.TotalTokens),
		}
	}
	return resp, nil
}

func bedrockToolConfig(tools []ToolDefinition, choice string) *brtypes.ToolConfiguration {
	cfg := &brtypes.ToolConfiguration{}
	for _, def := range tools {
		cfg.Tools = append(cfg.Tools, &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(def.Name),
				Description: aws.String(def.Description),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(def.JSONSchema())},
			},
		})
	}
	if choice == ToolChoiceAuto {
		cfg.ToolChoice = &brtypes.ToolChoiceMemberAuto{Value: brtypes.AutoToolChoice{}}
	}
	return cfg
}

// bedrockMessages converts the conversation into Converse messages. Tool
// results travel as user turns, and consecutive turns with the same role are
// merged because Converse requires strict alternation.
func bedrockMessages(in []ChatMessage) ([]brtypes.Message, error) {
	var out []brtypes.Message
	appendBlocks := func(role brtypes.ConversationRole, blocks ...brtypes.ContentBlock) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, brtypes.Message{Role: role, Content: blocks})
	}

	for _, msg := range in {
		switch msg.Role {
		case ChatRoleUser:
			if content := strings.TrimSpace(msg.Content); content != "" {
				appendBlocks(brtypes.ConversationRoleUser, &brtypes.ContentBlockMemberText{Value: content})
			}
		case ChatRoleAssistant:
			// Converse conversations must open with a user turn.
			if len(out) == 0 {
				continue
			}
			var blocks []brtypes.ContentBlock
			if content := strings.TrimSpace(msg.Content); content != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: content})
			}
			for _, call := range msg.ToolCalls {
				args, err := decodeToolArguments(call.Function.Arguments)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{
					Value: brtypes.ToolUseBlock{
						ToolUseId: aws.String(call.ID),
						Name:      aws.String(call.Function.Name),
						Input:     document.NewLazyDocument(args),
					},
				})
			}
			appendBlocks(brtypes.ConversationRoleAssistant, blocks...)
		case ChatRoleTool:
			appendBlocks(brtypes.ConversationRoleUser, &brtypes.ContentBlockMemberToolResult{
				Value: brtypes.ToolResultBlock{
					ToolUseId: aws.String(msg.ToolCallID),
					Content: []brtypes.ToolResultContentBlock{
						&brtypes.ToolResultContentBlockMemberText{Value: msg.Content},
					},
				},
			})
		case ChatRoleSystem:
			continue
		default:
			return nil, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}
	return out, nil
}

func bedrockOutputMessage(out *bedrockruntime.ConverseOutput) (ChatMessage, error) {
	if out == nil {
		return ChatMessage{}, fmt.Errorf("%w: bedrock response is nil", ErrUpstream)
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ChatMessage{}, fmt.Errorf("%w: bedrock response did not include a message output", ErrUpstream)
	}

	msg := ChatMessage{Role: ChatRoleAssistant}
	var text strings.Builder
	for _, block := range msgOut.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			text.WriteString(v.Value)
		case *brtypes.ContentBlockMemberToolUse:
			args := []byte("{}")
			if v.Value.Input != nil {
				raw, err := v.Value.Input.MarshalSmithyDocument()
				if err != nil {
					return ChatMessage{}, fmt.Errorf("%w: bedrock tool input: %v", ErrUpstream, err)
				}
				args = raw
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   aws.ToString(v.Value.ToolUseId),
				Type: "function",
				Function: ToolFunctionCall{
					Name:      aws.ToString(v.Value.Name),
					Arguments: string(args),
				},
			})
		}
	}
	msg.Content = strings.TrimSpace(text.String())
	return msg, nil
}

// decodeToolArguments parses a JSON-encoded argument object. An empty string
// is treated as no arguments.
func decodeToolArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: tool arguments are not a JSON object: %v", ErrUpstream, err)
	}
	return args, nil
}

func int32OrZero(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
