package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLabeler struct {
	reply string
	err   error
	input *bedrockruntime.ConverseInput
}

func (f *fakeLabeler) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.ConverseOutput{Output: &brtypes.ConverseOutputMemberMessage{
		Value: brtypes.Message{Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: f.reply}}},
	}}, nil
}

var cardiologyChat = []Message{
	{Role: "user", Content: "I want to see a cardiologist"},
	{Role: "assistant", Content: "Dr. Griffith is available Monday."},
}

func TestClassifierUsesModelLabels(t *testing.T) {
	fake := &fakeLabeler{reply: `{"medical_advice_risk":"low","prompt_injection_detected":false,"conversation_category":"appointment_booking","sentiment":"positive","contains_phi":true}`}
	labels, err := NewClassifier(fake, "haiku", nil).Classify(context.Background(), cardiologyChat)
	require.NoError(t, err)

	assert.Equal(t, Labels{
		MedicalAdviceRisk:    "low",
		ConversationCategory: "appointment_booking",
		Sentiment:            "positive",
		ContainsPHI:          true,
		AutoLabeled:          true,
		LabelModel:           "haiku",
	}, *labels)
	assert.Equal(t, "haiku", aws.ToString(fake.input.ModelId))
	prompt := fake.input.Messages[0].Content[0].(*brtypes.ContentBlockMemberText).Value
	assert.Contains(t, prompt, "user: I want to see a cardiologist\n")
}

func TestClassifierFallbacks(t *testing.T) {
	ctx := context.Background()

	labels, err := NewClassifier(nil, "", nil).Classify(ctx, cardiologyChat)
	require.NoError(t, err)
	assert.Equal(t, defaultLabels(), labels)

	labels, err = NewClassifier(&fakeLabeler{}, "m", nil).Classify(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "abandoned", labels.ConversationCategory)

	labels, err = NewClassifier(&fakeLabeler{reply: "I cannot help with that."}, "m", nil).Classify(ctx, cardiologyChat)
	require.NoError(t, err)
	assert.False(t, labels.AutoLabeled)

	_, err = NewClassifier(&fakeLabeler{err: errors.New("ThrottlingException")}, "m", nil).Classify(ctx, cardiologyChat)
	assert.ErrorContains(t, err, "ThrottlingException")
}

func TestParseLabels(t *testing.T) {
	labels, ok := parseLabels("```json\n{\"conversation_category\":\"Treatment_Inquiry\",\"sentiment\":\"furious\"}\n```")
	require.True(t, ok)
	assert.Equal(t, "treatment_inquiry", labels.ConversationCategory)
	assert.Equal(t, "neutral", labels.Sentiment)
	assert.Equal(t, "none", labels.MedicalAdviceRisk)

	_, ok = parseLabels("{not json}")
	assert.False(t, ok)
	_, ok = parseLabels("}{")
	assert.False(t, ok)
}
