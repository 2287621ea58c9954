package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// ValidateTwilioSignature checks X-Twilio-Signature against the form body
// signed with authToken for webhookURL.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	got := r.Header.Get("X-Twilio-Signature")
	if got == "" || r.ParseForm() != nil {
		return false
	}
	return hmac.Equal([]byte(got), []byte(twilioSignature(authToken, webhookURL, r.PostForm)))
}

// twilioSignature is base64(HMAC-SHA1(token, url + k1 + v1 + k2 + v2 ...))
// with keys in ascending order.
func twilioSignature(authToken, webhookURL string, form url.Values) string {
	mac := hmac.New(sha1.New, []byte(authToken))
	io.WriteString(mac, webhookURL)
	for _, k := range slices.Sorted(maps.Keys(form)) {
		for _, v := range form[k] {
			io.WriteString(mac, k)
			io.WriteString(mac, v)
		}
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// InboundMessage is a WhatsApp message delivered by a Twilio webhook.
type InboundMessage struct {
	MessageSID string `json:"message_sid"`
	From       string `json:"from_number"`
	To         string `json:"to_number"`
	Body       string `json:"message_body"`
}

// Complete reports whether every field the chat log needs is present.
func (m InboundMessage) Complete() bool {
	return m.MessageSID != "" && m.From != "" && m.To != "" && m.Body != ""
}

// ParseTwilioWebhook reads the form-encoded webhook body. Twilio sends the
// message id as SmsSid on WhatsApp webhooks and MessageSid on newer ones.
func ParseTwilioWebhook(r *http.Request) (*InboundMessage, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: parse form: %w", err)
	}
	sid := r.PostFormValue("SmsSid")
	if sid == "" {
		sid = r.PostFormValue("MessageSid")
	}
	return &InboundMessage{
		MessageSID: sid,
		From:       r.PostFormValue("From"),
		To:         r.PostFormValue("To"),
		Body:       r.PostFormValue("Body"),
	}, nil
}

// WhatsAppAddress prefixes a phone number with the whatsapp: channel
// scheme Twilio expects. Values that already carry it are returned as is.
func WhatsAppAddress(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// requestURL rebuilds the public URL Twilio signed, honoring proxy headers.
func requestURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + r.URL.RequestURI()
}
