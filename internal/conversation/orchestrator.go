package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/docconnect-ai/internal/observability/metrics"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

const (
	fallbackFirstReply  = "I'm sorry, I couldn't process that request."
	fallbackSecondReply = "I processed your request."

	defaultCompletionTimeout = 30 * time.Second
)

// IncomingMessage is one entry of the caller-supplied message array.
type IncomingMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the body of POST /chatbot-ai. Only the last message is the
// new utterance; earlier turns come from the chat log.
type TurnRequest struct {
	Messages  []IncomingMessage `json:"messages"`
	SessionID string            `json:"sessionId"`
}

// TurnResponse carries the final bot reply.
type TurnResponse struct {
	Response string `json:"response"`
}

// Validate rejects turns without a session or a usable last message.
func (r TurnRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("%w: sessionId is required", ErrInvalidTurn)
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrInvalidTurn)
	}
	if strings.TrimSpace(r.LastUtterance()) == "" {
		return fmt.Errorf("%w: last message has no content", ErrInvalidTurn)
	}
	return nil
}

// LastUtterance is the content of the final caller message.
func (r TurnRequest) LastUtterance() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// ToolDispatcher runs a named tool with JSON arguments.
type ToolDispatcher interface {
	Definitions() []ToolDefinition
	Dispatch(ctx context.Context, name, arguments string) (result string, known bool, err error)
}

// OrchestratorConfig wires the orchestrator's collaborators.
type OrchestratorConfig struct {
	Completer         Completer
	Tools             ToolDispatcher
	ChatLog           ChatLog
	Hospital          HospitalInfo
	CompletionTimeout time.Duration
	Metrics           *metrics.ChatMetrics
	Logger            *logging.Logger
	Clock             func() time.Time
}

// Orchestrator runs one chat turn: history, first completion, at most one
// tool call, second completion and persistence of the bot reply.
type Orchestrator struct {
	completer Completer
	tools     ToolDispatcher
	chatLog   ChatLog
	hospital  HospitalInfo
	timeout   time.Duration
	metrics   *metrics.ChatMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Completer == nil {
		panic("conversation: completer required")
	}
	if cfg.Tools == nil {
		panic("conversation: tool dispatcher required")
	}
	if cfg.ChatLog == nil {
		panic("conversation: chat log required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = defaultCompletionTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Orchestrator{
		completer: cfg.Completer,
		tools:     cfg.Tools,
		chatLog:   cfg.ChatLog,
		hospital:  cfg.Hospital,
		timeout:   cfg.CompletionTimeout,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Clock,
	}
}

// Reply processes one turn and returns the bot reply. Any completion failure
// aborts the turn; side effects of an executed tool are not rolled back.
func (o *Orchestrator) Reply(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	ctx, span := conversationTracer.Start(ctx, "conversation.reply")
	defer span.End()
	span.SetAttributes(attribute.String("docconnect.session_id", req.SessionID))

	if err := req.Validate(); err != nil {
		o.metrics.ObserveTurn("invalid")
		return nil, err
	}
	logger := o.logger.With("session_id", req.SessionID)

	history, err := o.chatLog.History(ctx, req.SessionID)
	if err != nil {
		logger.Error("failed to load chat history, continuing without it", "error", err)
		history = nil
	}
	utterance := req.LastUtterance()
	conversation := historyToMessages(dropPersistedUtterance(history, utterance))
	conversation = append(conversation, ChatMessage{Role: ChatRoleUser, Content: utterance})

	system := BuildSystemPrompt(o.hospital, o.now())
	tools := o.tools.Definitions()

	first, err := o.complete(ctx, CompletionRequest{
		System:     system,
		Messages:   conversation,
		Tools:      tools,
		ToolChoice: ToolChoiceAuto,
	})
	if err != nil {
		span.RecordError(err)
		o.metrics.ObserveTurn("error")
		return nil, err
	}

	reply := strings.TrimSpace(first.Message.Content)
	if reply == "" {
		reply = fallbackFirstReply
	}
	outcome := "ok"

	if len(first.Message.ToolCalls) > 0 {
		call := first.Message.ToolCalls[0]
		name := call.Function.Name
		logger.Info("dispatching tool call", "tool", name, "tool_call_id", call.ID)

		result, known, err := o.tools.Dispatch(ctx, name, call.Function.Arguments)
		switch {
		case err != nil:
			o.metrics.ObserveToolCall(name, "bad_arguments")
			o.metrics.ObserveTurn("error")
			span.RecordError(err)
			return nil, err
		case !known:
			o.metrics.ObserveToolCall(name, "unknown")
			logger.Warn("model requested unknown tool", "tool", name)
			reply = fmt.Sprintf("I tried to use a tool called %q but it's not recognized.", name)
			outcome = "unknown_tool"
		default:
			o.metrics.ObserveToolCall(name, "ok")

			assistant := first.Message
			assistant.Role = ChatRoleAssistant
			assistant.ToolCalls = []ToolCall{call}
			followUp := make([]ChatMessage, 0, len(conversation)+2)
			followUp = append(followUp, conversation...)
			followUp = append(followUp,
				assistant,
				ChatMessage{Role: ChatRoleTool, ToolCallID: call.ID, Name: name, Content: result},
			)

			// Tool calls in the second reply are not followed.
			second, err := o.complete(ctx, CompletionRequest{
				System:   system,
				Messages: followUp,
				Tools:    tools,
			})
			if err != nil {
				span.RecordError(err)
				o.metrics.ObserveTurn("error")
				return nil, err
			}
			reply = strings.TrimSpace(second.Message.Content)
			if reply == "" {
				reply = fallbackSecondReply
			}
			outcome = "tool"
		}
	}

	if err := o.chatLog.Append(ctx, req.SessionID, SenderBot, reply); err != nil {
		logger.Error("failed to persist bot reply", "error", err)
	}

	o.metrics.ObserveTurn(outcome)
	return &TurnResponse{Response: reply}, nil
}

// complete runs one completion call under its own deadline.
func (o *Orchestrator) complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.completer.Complete(callCtx, req)
	elapsed := time.Since(start).Seconds()

	model := o.modelLabel(resp)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || (errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil) {
			o.metrics.ObserveLLM(model, "timeout", elapsed)
			return nil, fmt.Errorf("%w after %s: %v", ErrCompletionTimeout, o.timeout, err)
		}
		o.metrics.ObserveLLM(model, "error", elapsed)
		return nil, err
	}
	if resp == nil {
		o.metrics.ObserveLLM(model, "error", elapsed)
		return nil, fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	o.metrics.ObserveLLM(model, "ok", elapsed)
	o.metrics.ObserveTokens(model, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	return resp, nil
}

func (o *Orchestrator) modelLabel(resp *Completion) string {
	if resp != nil && resp.Model != "" {
		return resp.Model
	}
	if named, ok := o.completer.(modelNamer); ok && named.ModelID() != "" {
		return named.ModelID()
	}
	return "unknown"
}

// dropPersistedUtterance removes the caller's message when the transport
// already logged it, so the model sees it once.
func dropPersistedUtterance(history []LoggedMessage, utterance string) []LoggedMessage {
	if n := len(history); n > 0 && history[n-1].Sender == SenderUser && history[n-1].Content == utterance {
		return history[:n-1]
	}
	return history
}
