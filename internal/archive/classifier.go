package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

// Label vocabularies. Values outside these sets are replaced by the default.
var (
	riskLevels = []string{"none", "low", "medium", "high"}
	categories = []string{
		"appointment_booking", "doctor_inquiry", "treatment_inquiry", "hospital_info",
		"medical_advice_request", "prompt_injection", "abusive", "abandoned",
	}
	sentiments = []string{"positive", "neutral", "negative", "hostile"}
)

const labelerMaxTokens = 512

// BedrockConverseAPI is the part of the Bedrock runtime client used for labeling.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Classifier labels transcripts with a small Bedrock model.
type Classifier struct {
	client  BedrockConverseAPI
	modelID string
	logger  *logging.Logger
}

func NewClassifier(client BedrockConverseAPI, modelID string, logger *logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{client: client, modelID: modelID, logger: logger}
}

// Classify labels messages. Without a model, or when the model answers with
// something other than a JSON object, the default labels are returned.
func (c *Classifier) Classify(ctx context.Context, messages []Message) (*Labels, error) {
	if len(messages) == 0 {
		labels := defaultLabels()
		labels.ConversationCategory = "abandoned"
		return labels, nil
	}
	if c == nil || c.client == nil || c.modelID == "" {
		return defaultLabels(), nil
	}

	out, err := c.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		System:  []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: labelerSystemPrompt}},
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: labelerPrompt(messages)}},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(labelerMaxTokens),
			Temperature: aws.Float32(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("archive: classify: %w", err)
	}

	labels, ok := parseLabels(converseText(out))
	if !ok {
		c.logger.Debug("labeler reply had no usable json", "model", c.modelID)
		return defaultLabels(), nil
	}
	labels.LabelModel = c.modelID
	return labels, nil
}

func converseText(out *bedrockruntime.ConverseOutput) string {
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String()
}

// parseLabels decodes the outermost {...} in text, tolerating code fences
// and chatter around it.
func parseLabels(text string) (*Labels, bool) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var labels Labels
	if err := json.Unmarshal([]byte(text[start:end+1]), &labels); err != nil {
		return nil, false
	}
	defaults := defaultLabels()
	labels.MedicalAdviceRisk = oneOf(labels.MedicalAdviceRisk, riskLevels, defaults.MedicalAdviceRisk)
	labels.ConversationCategory = oneOf(labels.ConversationCategory, categories, defaults.ConversationCategory)
	labels.Sentiment = oneOf(labels.Sentiment, sentiments, defaults.Sentiment)
	labels.AutoLabeled = true
	return &labels, true
}

func oneOf(v string, allowed []string, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if slices.Contains(allowed, v) {
		return v
	}
	return fallback
}

func defaultLabels() *Labels {
	return &Labels{
		MedicalAdviceRisk:    "none",
		ConversationCategory: "hospital_info",
		Sentiment:            "neutral",
	}
}

const labelerSystemPrompt = "You label conversations between patients and a hospital booking assistant. Reply with a single JSON object and nothing else. When unsure pick the milder label."

func labelerPrompt(messages []Message) string {
	var sb strings.Builder
	sb.WriteString("Label the conversation below. Reply with JSON using exactly these keys:\n")
	fmt.Fprintf(&sb, "  medical_advice_risk: one of %s\n", strings.Join(riskLevels, "|"))
	sb.WriteString("  prompt_injection_detected: true or false\n")
	fmt.Fprintf(&sb, "  conversation_category: one of %s\n", strings.Join(categories, "|"))
	fmt.Fprintf(&sb, "  sentiment: one of %s\n", strings.Join(sentiments, "|"))
	sb.WriteString("  contains_phi: true or false\n\n")
	sb.WriteString("medical_advice_risk is high when the assistant diagnosed or recommended treatment, medium when symptoms came up, low when only scheduling was discussed. ")
	sb.WriteString("contains_phi is true when symptoms, conditions or visit reasons appear.\n\nConversation:\n")
	for _, m := range messages {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	return sb.String()
}
