package conversation

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiContentsMapping(t *testing.T) {
	contents, err := geminiContents([]ChatMessage{
		{Role: ChatRoleUser, Content: "Cardiologists?"},
		{Role: ChatRoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Function: ToolFunctionCall{Name: "get_doctors_info", Arguments: `{"specialization":"Cardiology"}`}}}},
		{Role: ChatRoleTool, ToolCallID: "c1", Name: "get_doctors_info", Content: `[{"name":"Dr. James Griffith"}]`},
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)

	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "Cardiology", call.Args["specialization"])

	resp, ok := contents[2].Parts[0].(genai.FunctionResponse)
	require.True(t, ok)
	assert.Equal(t, "get_doctors_info", resp.Name)
	assert.Contains(t, resp.Response, "result")
}

func TestGeminiToolDeclarations(t *testing.T) {
	tool := geminiTool(toolDefinitions)
	require.Len(t, tool.FunctionDeclarations, 4)
	book := tool.FunctionDeclarations[3]
	assert.Equal(t, genai.TypeObject, book.Parameters.Type)
	assert.Equal(t, genai.TypeNumber, book.Parameters.Properties["age"].Type)
	assert.Len(t, book.Parameters.Required, 9)

	assert.Equal(t, map[string]any{"available_slots": []any{}}, geminiToolResponse(`{"available_slots":[]}`))
	assert.Equal(t, map[string]any{"result": "not json"}, geminiToolResponse("not json"))
}
