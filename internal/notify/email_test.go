package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

type fakeSendGrid struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "{}"}, nil
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "front@hospital.example", Address{Email: "front@hospital.example"}.String())
	assert.Equal(t, "DocConnect <front@hospital.example>", Address{Email: "front@hospital.example"}.withDefaultName().String())
}

func TestTextToHTML(t *testing.T) {
	assert.Equal(t, "Hi &lt;Jane&gt;,<br>See you Monday.", TextToHTML("Hi <Jane>,\nSee you Monday."))
}

func TestNewSendGridSender(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{From: Address{Email: "a@b.co"}}, nil))

	s := NewSendGridSender(SendGridConfig{APIKey: "key", From: Address{Email: "a@b.co"}}, nil)
	require.NotNil(t, s)
	assert.Equal(t, defaultFromName, s.from.Name)

	named := NewSendGridSender(SendGridConfig{APIKey: "key", From: Address{Email: "a@b.co", Name: "St. Mary Front Desk"}}, nil)
	assert.Equal(t, "St. Mary Front Desk", named.from.Name)
}

func TestSendGridSenderSend(t *testing.T) {
	api := &fakeSendGrid{status: 202}
	s := &SendGridSender{api: api, from: Address{Email: "noreply@docconnect.example", Name: "DocConnect"}, logger: logging.Default()}

	err := s.Send(context.Background(), EmailMessage{To: "jane@example.com", ToName: "Jane", Subject: "Confirmed", Body: "See you\nsoon"})
	require.NoError(t, err)
	require.Len(t, api.sent, 1)
	m := api.sent[0]
	assert.Equal(t, "Confirmed", m.Subject)
	assert.Equal(t, "noreply@docconnect.example", m.From.Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "See you<br>soon", m.Content[1].Value)
}

func TestSendGridSenderFailures(t *testing.T) {
	logger := logging.Default()
	msg := EmailMessage{To: "jane@example.com", Subject: "s", Body: "b"}

	assert.Error(t, (&SendGridSender{logger: logger}).Send(context.Background(), msg))
	assert.ErrorIs(t, (&SendGridSender{api: &fakeSendGrid{}, logger: logger}).Send(context.Background(), EmailMessage{}), errNoRecipient)

	err := (&SendGridSender{api: &fakeSendGrid{status: 401}, logger: logger}).Send(context.Background(), msg)
	assert.EqualError(t, err, "notify: sendgrid status 401")

	boom := errors.New("dial tcp: timeout")
	err = (&SendGridSender{api: &fakeSendGrid{err: boom}, logger: logger}).Send(context.Background(), msg)
	assert.ErrorIs(t, err, boom)
}

func TestLogEmailSender(t *testing.T) {
	s := NewLogEmailSender(nil)
	assert.NoError(t, s.Send(context.Background(), EmailMessage{To: "jane@example.com", Subject: "hi"}))
	assert.ErrorIs(t, s.Send(context.Background(), EmailMessage{}), errNoRecipient)
}

func TestNewEmailSenderSelection(t *testing.T) {
	assert.IsType(t, &LogEmailSender{}, NewEmailSender(ProviderConfig{}, nil, nil))
	assert.IsType(t, &LogEmailSender{}, NewEmailSender(ProviderConfig{Provider: "log", SendGrid: SendGridConfig{APIKey: "k"}}, nil, nil))

	sg := NewEmailSender(ProviderConfig{Provider: "auto", SendGrid: SendGridConfig{APIKey: "k", From: Address{Email: "a@b.co"}}}, nil, nil)
	assert.IsType(t, &SendGridSender{}, sg)

	ses := NewEmailSender(ProviderConfig{Provider: "ses", SES: SESConfig{From: Address{Email: "noreply@docconnect.example"}}}, &stubSES{}, nil)
	assert.IsType(t, &SESSender{}, ses)

	// ses without a client degrades to sendgrid, then to the log sender
	assert.IsType(t, &LogEmailSender{}, NewEmailSender(ProviderConfig{Provider: "ses"}, nil, nil))
}
