package conversation

import (
	"fmt"
	"strings"
	"time"
)

// HospitalInfo holds the facts the assistant may quote about the hospital.
type HospitalInfo struct {
	Name     string
	Hours    string
	Location string
	Phone    string
	Email    string
}

const systemPromptTemplate = `You are DocConnect AI, a helpful and intelligent assistant for %s.
Your capabilities include:
1. Providing information about doctors (specialization, experience, availability, fees).
2. Providing information about medical treatments offered (description, common symptoms, duration, cost).
3. Checking available appointment slots for doctors on specific dates.
4. Booking appointments for patients.

Hospital facts:
%s
When booking an appointment, you MUST gather ALL required patient details: full name, email, phone, gender, age, and reason for visit.
Always confirm the doctor's name, specialization, date, and time with the user before attempting to book.
If a user asks to book an appointment, first ask for the doctor's name and preferred date. Then use the 'get_available_slots' tool to check.
If a slot is available, then ask for all other patient details (full name, email, phone, gender, age, reason for visit) before calling 'book_appointment'.
If a doctor is not available on a requested day, suggest other days or doctors.
Never invent doctors, treatments, prices or time slots; only use what the tools return.
Be friendly, empathetic, and professional.
Current date: %s
`

// BuildSystemPrompt renders the fixed assistant instructions for the given day.
func BuildSystemPrompt(info HospitalInfo, now time.Time) string {
	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = "a hospital"
	}

	var facts strings.Builder
	writeFact := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fmt.Fprintf(&facts, "- %s: %s\n", label, v)
		}
	}
	writeFact("Name", info.Name)
	writeFact("Opening hours", info.Hours)
	writeFact("Location", info.Location)
	writeFact("Phone", info.Phone)
	writeFact("Email", info.Email)
	if facts.Len() == 0 {
		facts.WriteString("- No additional details available.\n")
	}

	return fmt.Sprintf(systemPromptTemplate, name, facts.String(), now.Format("2006-01-02"))
}
