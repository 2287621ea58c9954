package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryInbound struct {
	saved []InboundMessage
	err   error
}

func (m *memoryInbound) SaveInbound(_ context.Context, msg InboundMessage) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, existing := range m.saved {
		if existing.MessageSID == msg.MessageSID {
			return false, nil
		}
	}
	m.saved = append(m.saved, msg)
	return true, nil
}

func webhookRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/receive-whatsapp-message", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validForm() url.Values {
	return url.Values{
		"From":   {"whatsapp:+15551234567"},
		"To":     {"whatsapp:+14155238886"},
		"Body":   {"Hello"},
		"SmsSid": {"SM1"},
	}
}

func TestReceiveWhatsAppPersistsAndAcks(t *testing.T) {
	store := &memoryInbound{}
	h := NewHandler(store, "", nil)

	rec := httptest.NewRecorder()
	h.ReceiveWhatsApp(rec, webhookRequest(validForm()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<Response></Response>", rec.Body.String())
	require.Len(t, store.saved, 1)
	assert.Equal(t, "Hello", store.saved[0].Body)

	rec = httptest.NewRecorder()
	h.ReceiveWhatsApp(rec, webhookRequest(validForm()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.saved, 1)
}

func TestReceiveWhatsAppMissingParams(t *testing.T) {
	store := &memoryInbound{}
	h := NewHandler(store, "", nil)

	form := validForm()
	form.Del("Body")
	rec := httptest.NewRecorder()
	h.ReceiveWhatsApp(rec, webhookRequest(form))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing required Twilio webhook parameters."}`, rec.Body.String())
	assert.Empty(t, store.saved)
}

func TestReceiveWhatsAppStoreError(t *testing.T) {
	h := NewHandler(&memoryInbound{err: errors.New("db down")}, "", nil)
	rec := httptest.NewRecorder()
	h.ReceiveWhatsApp(rec, webhookRequest(validForm()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReceiveWhatsAppRejectsBadSignature(t *testing.T) {
	store := &memoryInbound{}
	h := NewHandler(store, "token", nil)
	rec := httptest.NewRecorder()
	h.ReceiveWhatsApp(rec, webhookRequest(validForm()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.saved)
}
