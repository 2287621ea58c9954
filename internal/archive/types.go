package archive

import "time"

// Transcript is the JSON document stored for one archived chat session.
type Transcript struct {
	Version         string     `json:"version"` // "1.0"
	SessionID       string     `json:"session_id"`
	ArchivedAt      time.Time  `json:"archived_at"`
	DurationSeconds int        `json:"duration_seconds"`
	MessageCount    int        `json:"message_count"`
	Outcome         string     `json:"outcome"` // answered|abandoned
	Labels          Labels     `json:"labels"`
	Redactions      Redactions `json:"redactions,omitempty"`
	Messages        []Message  `json:"messages"`
}

// Labels triage a transcript for review.
type Labels struct {
	MedicalAdviceRisk       string `json:"medical_advice_risk"` // none|low|medium|high
	PromptInjectionDetected bool   `json:"prompt_injection_detected"`
	ConversationCategory    string `json:"conversation_category"` // appointment_booking|doctor_inquiry|treatment_inquiry|hospital_info|medical_advice_request|prompt_injection|abusive|abandoned
	Sentiment               string `json:"sentiment"`             // positive|neutral|negative|hostile
	ContainsPHI             bool   `json:"contains_phi"`
	AutoLabeled             bool   `json:"auto_labeled"`
	LabelModel              string `json:"label_model"`
}

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ManifestEntry is one line of the monthly manifest.
type ManifestEntry struct {
	SessionID         string `json:"session_id"`
	S3Key             string `json:"s3_key"`
	Category          string `json:"category"`
	MedicalRisk       string `json:"medical_risk"`
	InjectionDetected bool   `json:"injection_detected"`
	ArchivedAt        string `json:"archived_at"`
	MessageCount      int    `json:"message_count"`
	Outcome           string `json:"outcome"`
	Redactions        int    `json:"redactions"`
}
