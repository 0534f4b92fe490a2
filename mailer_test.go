package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/retro-desktop/internal/config"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func capturingMailer(cfg config.SMTPConfig, sent *[]sentMail, err error) *mailer {
	m := newMailer(cfg, zerolog.Nop())
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return err
	}
	return m
}

var testSMTP = config.SMTPConfig{
	Host:    "smtp.example.com",
	Port:    "587",
	User:    "site@example.com",
	Pass:    "app-password",
	ToEmail: "owner@example.com",
}

func TestSendContactEmail(t *testing.T) {
	var sent []sentMail
	m := capturingMailer(testSMTP, &sent, nil)

	require.NoError(t, m.sendContactEmail("Ada", "ada@example.com", "Hello there"))
	require.Len(t, sent, 1)

	mail := sent[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Equal(t, "site@example.com", mail.from)
	assert.Equal(t, []string{"owner@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Portfolio Contact: Ada\r\n")
	assert.Contains(t, mail.msg, "Reply-To: ada@example.com\r\n")
	assert.Contains(t, mail.msg, "Hello there")
}

func TestSendContactEmailHeaderInjection(t *testing.T) {
	var sent []sentMail
	m := capturingMailer(testSMTP, &sent, nil)

	require.NoError(t, m.sendContactEmail("Eve\r\nBcc: victim@example.com", "eve@example.com", "hi"))
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].msg, "\r\nBcc:")
}

func TestSendContactEmailDefaultsRecipient(t *testing.T) {
	var sent []sentMail
	cfg := testSMTP
	cfg.ToEmail = ""
	m := capturingMailer(cfg, &sent, nil)

	require.NoError(t, m.sendContactEmail("Ada", "ada@example.com", "Hello"))
	assert.Equal(t, []string{"site@example.com"}, sent[0].to)
}

func TestSendContactEmailErrors(t *testing.T) {
	var sent []sentMail

	m := capturingMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "587"}, &sent, nil)
	assert.ErrorIs(t, m.sendContactEmail("Ada", "ada@example.com", "Hello"), errSMTPNotConfigured)

	m = capturingMailer(testSMTP, &sent, nil)
	assert.ErrorIs(t, m.sendContactEmail("", "ada@example.com", "Hello"), errIncompleteForm)
	assert.ErrorIs(t, m.sendContactEmail("Ada", "ada@example.com", "   "), errIncompleteForm)
	assert.Empty(t, sent)

	boom := errors.New("connection refused")
	m = capturingMailer(testSMTP, &sent, boom)
	assert.ErrorIs(t, m.sendContactEmail("Ada", "ada@example.com", "Hello"), boom)
}

func postContact(ts *testServer, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestContactRoute(t *testing.T) {
	ts := newTestServer(t, nil)
	form := url.Values{"fullName": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hello"}}

	// No SMTP credentials: the visitor gets an error fragment, not a crash.
	rec := postContact(ts, form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "error sending your message")

	var sent []sentMail
	ts.app.mailer.cfg = testSMTP
	ts.app.mailer.send = capturingMailer(testSMTP, &sent, nil).send

	rec = postContact(ts, form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thank you for your message")
	assert.Len(t, sent, 1)

	rec = postContact(ts, url.Values{"fullName": {"Ada"}})
	assert.Contains(t, rec.Body.String(), "Please fill in")
}
