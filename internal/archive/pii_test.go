package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScrubPII(t *testing.T) {
	cases := map[string]struct {
		in, want string
	}{
		"email":         {"send it to jane.doe@example.com thanks", "send it to [EMAIL] thanks"},
		"us phone":      {"reach me on 555-010-4477", "reach me on [PHONE]"},
		"e164 phone":    {"whatsapp +15550104477 works", "whatsapp [PHONE] works"},
		"date of birth": {"DOB: 1990-04-12", "[DOB]"},
		"stated age":    {"I am 34 years old", "[AGE]"},
		"appointment":   {"Book 2025-06-16 at 09:00 please", "Book 2025-06-16 at 09:00 please"},
		"symptoms":      {"I have chest pain after running", "I have chest pain after running"},
		"name kept":     {"My name is Amina Yusuf", "My name is Amina Yusuf"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScrubPII(tc.in))
		})
	}
}

func TestScrubMessagesCountsRedactions(t *testing.T) {
	now := time.Now()
	msgs := []Message{
		{Role: "user", Content: "Book Dr. Griffith for me, email amina@example.com, phone 555-010-4477", Timestamp: now},
		{Role: "assistant", Content: "Appointment booked successfully!", Timestamp: now},
		{Role: "user", Content: "I'm 41 by the way", Timestamp: now},
	}

	got := ScrubMessages(msgs)
	assert.Equal(t, "Book Dr. Griffith for me, email [EMAIL], phone [PHONE]", msgs[0].Content)
	assert.Equal(t, "Appointment booked successfully!", msgs[1].Content)
	assert.Equal(t, "[AGE] by the way", msgs[2].Content)
	assert.Equal(t, Redactions{"email": 1, "phone": 1, "age": 1}, got)
	assert.Equal(t, 3, got.Total())
}
