package sender_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	smtplib "github.com/orchestra-mcp/portal/internal/lib/smtp"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/sender"
)

// Фейковый SMTP-клиент, который записывает переданное письмо.
type clientFake struct {
	from string
	to   string
	data bytes.Buffer
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func (c *clientFake) Mail(from string) error { c.from = from; return nil }

func (c *clientFake) Rcpt(to string) error { c.to = to; return nil }

func (c *clientFake) Data() (io.WriteCloser, error) { return nopWriteCloser{&c.data}, nil }

func (c *clientFake) Quit() error { return nil }

func (c *clientFake) Close() error { return nil }

type transportFake struct {
	client *clientFake
}

func (t *transportFake) Connect() (smtplib.Client, error) { return t.client, nil }

func (t *transportFake) GetSMTPUser() string { return "noreply@example.com" }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleEmailMessage(t *testing.T) {
	client := &clientFake{}
	svc := sender.New(newNoopLogger(), &transportFake{client: client})

	body, _ := json.Marshal(models.EmailMessage{
		Email:   "user@example.com",
		Subject: "Subscription expiring soon",
		Body:    "Your subscription expires in 7 days.",
	})

	assert.NoError(t, svc.HandleEmailMessage(body))
	assert.Equal(t, "noreply@example.com", client.from)
	assert.Equal(t, "user@example.com", client.to)
	assert.Contains(t, client.data.String(), "Subject: Subscription expiring soon")
	assert.Contains(t, client.data.String(), "Your subscription expires in 7 days.")
}

func TestHandleEmailMessage_MalformedBody(t *testing.T) {
	svc := sender.New(newNoopLogger(), &transportFake{client: &clientFake{}})
	assert.Error(t, svc.HandleEmailMessage([]byte("not a json")))
}

func TestHandleEmailMessage_MissingRecipientSkipped(t *testing.T) {
	client := &clientFake{}
	svc := sender.New(newNoopLogger(), &transportFake{client: client})

	body, _ := json.Marshal(models.EmailMessage{Subject: "No recipient"})

	assert.NoError(t, svc.HandleEmailMessage(body))
	assert.Empty(t, client.to)
}
