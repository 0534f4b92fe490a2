package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Zachkp/retro-desktop/internal/config"
)

var (
	errSMTPNotConfigured = errors.New("SMTP credentials not configured")
	errIncompleteForm    = errors.New("name, email and message are required")
)

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// mailer relays contact form submissions to the site owner.
type mailer struct {
	cfg    config.SMTPConfig
	send   sendFunc
	logger zerolog.Logger
}

func newMailer(cfg config.SMTPConfig, logger zerolog.Logger) *mailer {
	return &mailer{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// header values must not carry line breaks into the message head.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}

func (m *mailer) sendContactEmail(name, email, message string) error {
	if m.cfg.User == "" || m.cfg.Pass == "" {
		return errSMTPNotConfigured
	}
	name, email = headerSafe(name), headerSafe(email)
	if name == "" || email == "" || strings.TrimSpace(message) == "" {
		return errIncompleteForm
	}

	to := m.cfg.ToEmail
	if to == "" {
		to = m.cfg.User
	}

	subject := fmt.Sprintf("Portfolio Contact: %s", name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, email, message)

	msg := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + m.cfg.User + "\r\n" +
		"Reply-To: " + email + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send contact email: %w", err)
	}

	m.logger.Info().Str("from", email).Msg("contact email sent")
	return nil
}

// handleContact answers the HTMX contact form with a result fragment.
func (m *mailer) handleContact(c *gin.Context) {
	err := m.sendContactEmail(c.PostForm("fullName"), c.PostForm("email"), c.PostForm("message"))
	switch {
	case errors.Is(err, errIncompleteForm):
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in your name, email and message.",
		})
	case err != nil:
		m.logger.Error().Err(err).Msg("contact form delivery failed")
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
	default:
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
	}
}
