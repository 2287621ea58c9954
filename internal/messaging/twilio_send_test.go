package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioSenderSendAlert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+15550001111", r.PostForm.Get("To"))
		assert.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		assert.Equal(t, "Dr. A has arrived", r.PostForm.Get("Body"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "whatsapp:+14155238886",
		AlertTo:    "+15550001111",
		BaseURL:    srv.URL,
	}, nil)
	require.NoError(t, sender.SendAlert(context.Background(), "Dr. A has arrived"))
}

func TestTwilioSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":63007,"message":"Twilio could not find a Channel with the specified From address","status":400}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{AccountSID: "AC1", AuthToken: "t", From: "+1", BaseURL: srv.URL}, nil)
	_, err := sender.Send(context.Background(), "+15550001111", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 63007")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"sid":"SM7"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{AccountSID: "AC1", AuthToken: "t", From: "+1", BaseURL: srv.URL}, nil)
	sid, err := sender.Send(context.Background(), "+15550001111", "hi")
	require.NoError(t, err)
	assert.Equal(t, "SM7", sid)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTwilioSenderValidation(t *testing.T) {
	_, err := NewTwilioSender(TwilioConfig{}, nil).Send(context.Background(), "+1", "hi")
	assert.ErrorContains(t, err, "credentials missing")

	err = NewTwilioSender(TwilioConfig{AccountSID: "AC1", AuthToken: "t", From: "+1"}, nil).SendAlert(context.Background(), "hi")
	assert.ErrorContains(t, err, "alert recipient")
}
