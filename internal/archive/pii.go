package archive

import "regexp"

// piiRule masks one kind of patient identifier.
type piiRule struct {
	kind  string
	re    *regexp.Regexp
	token string
}

// Order matters: emails go first so their digits are not read as phones.
var piiRules = []piiRule{
	{kind: "email", re: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), token: "[EMAIL]"},
	{kind: "dob", re: regexp.MustCompile(`(?i)\b(?:dob|date of birth|born on)\b[:\s]*[0-9]{1,4}[-/.][0-9]{1,2}[-/.][0-9]{1,4}`), token: "[DOB]"},
	{kind: "phone", re: regexp.MustCompile(`(?:\+|\(|\b)(?:[0-9]{1,3}[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`), token: "[PHONE]"},
	{kind: "age", re: regexp.MustCompile(`(?i)\b(?:i am|i'm|aged?)\s+[0-9]{1,3}(?:\s+years?(?:\s+old)?)?\b`), token: "[AGE]"},
}

// Redactions counts masked identifiers by kind.
type Redactions map[string]int

// Total returns the number of masked identifiers.
func (r Redactions) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// ScrubPII masks contact details, birth dates and stated ages collected during
// booking. Patient names stay so reviewers can follow the booking flow.
func ScrubPII(text string) string {
	out, _ := scrub(text, nil)
	return out
}

func scrub(text string, counts Redactions) (string, Redactions) {
	if counts == nil {
		counts = Redactions{}
	}
	for _, rule := range piiRules {
		n := len(rule.re.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		counts[rule.kind] += n
		text = rule.re.ReplaceAllString(text, rule.token)
	}
	return text, counts
}

// ScrubMessages masks every message in place and reports what was removed.
func ScrubMessages(msgs []Message) Redactions {
	counts := Redactions{}
	for i := range msgs {
		msgs[i].Content, counts = scrub(msgs[i].Content, counts)
	}
	return counts
}
