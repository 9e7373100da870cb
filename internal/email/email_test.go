package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestSMTPMailer_BuildsMessage(t *testing.T) {
	m := NewSMTPMailer("smtp.example.org", "587", "user", "secret", "noreply@skillbridge.org").(*smtpMailer)
	assert.Equal(t, 587, m.port)

	var sent bytes.Buffer
	var dialer *gomail.Dialer
	m.dial = func(d *gomail.Dialer, msgs ...*gomail.Message) error {
		dialer = d
		for _, msg := range msgs {
			if _, err := msg.WriteTo(&sent); err != nil {
				return err
			}
		}
		return nil
	}

	err := m.Send(context.Background(), "ada@example.org", "Ada", "Application accepted", "Welcome aboard")
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.org", dialer.Host)

	raw := sent.String()
	assert.True(t, strings.Contains(raw, "Subject: Application accepted"))
	assert.True(t, strings.Contains(raw, "ada@example.org"))
	assert.True(t, strings.Contains(raw, "Welcome aboard"))
}

func TestSMTPMailer_WrapsError(t *testing.T) {
	m := NewSMTPMailer("smtp.example.org", "25", "", "", "noreply@skillbridge.org").(*smtpMailer)
	m.dial = func(*gomail.Dialer, ...*gomail.Message) error { return errors.New("connection refused") }

	err := m.Send(context.Background(), "ada@example.org", "Ada", "s", "b")
	assert.ErrorContains(t, err, "connection refused")
}
