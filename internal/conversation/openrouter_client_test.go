package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterMissingAPIKey(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterConfig{Model: "mistralai/mistral-7b-instruct"})
	_, err := client.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenRouterRequestAndToolCallResponse(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-1",
			"model": "mistralai/mistral-7b-instruct",
			"object": "chat.completion",
			"created": 1718000000,
			"choices": [{
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{
						"id": "call_abc",
						"type": "function",
						"function": {"name": "get_doctors_info", "arguments": "{\"specialization\":\"Cardiology\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 310, "completion_tokens": 22, "total_tokens": 332}
		}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "mistralai/mistral-7b-instruct"})
	resp, err := client.Complete(context.Background(), CompletionRequest{
		System:     "You are DocConnect AI",
		Messages:   []ChatMessage{{Role: ChatRoleUser, Content: "What cardiologists do you have?"}},
		Tools:      toolDefinitions,
		ToolChoice: ToolChoiceAuto,
	})
	require.NoError(t, err)

	assert.Equal(t, "mistralai/mistral-7b-instruct", captured["model"])
	assert.Equal(t, "auto", captured["tool_choice"])
	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	tools := captured["tools"].([]any)
	require.Len(t, tools, 4)
	fn := tools[2].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "get_available_slots", fn["name"])

	assert.Empty(t, resp.Message.Content)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_abc", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, `{"specialization":"Cardiology"}`, resp.Message.ToolCalls[0].Function.Arguments)
	assert.Equal(t, int32(310), resp.Usage.InputTokens)
	assert.Equal(t, "tool_calls", resp.StopReason)
}

func TestOpenRouterToolResultMessageShape(t *testing.T) {
	var captured struct {
		Messages   []map[string]any `json:"messages"`
		ToolChoice *string          `json:"tool_choice"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Dr. Griffith is available."}}]}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "Cardiologists?"},
			{Role: ChatRoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Type: "function", Function: ToolFunctionCall{Name: "get_doctors_info", Arguments: "{}"}}}},
			{Role: ChatRoleTool, ToolCallID: "call_1", Name: "get_doctors_info", Content: `[]`},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Griffith is available.", resp.Message.Content)
	assert.Equal(t, "m", resp.Model)

	assert.Nil(t, captured.ToolChoice)
	require.Len(t, captured.Messages, 3)
	toolMsg := captured.Messages[2]
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])
	assert.Equal(t, "[]", toolMsg["content"])
}

func TestOpenRouterNon2xxIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit exceeded"}}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	_, err := client.Complete(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "Rate limit exceeded")
}

func TestOpenRouterNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	_, err := client.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrUpstream)
}
