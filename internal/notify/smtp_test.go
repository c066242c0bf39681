package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIME_WithAttachment(t *testing.T) {
	msg := Message{
		To:      "client@example.com",
		Subject: "ご予約が確定しました",
		HTML:    "<p>Hello</p>",
		Attachments: []Attachment{
			{Filename: "invoice-2025-11-20-000001.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3 test")},
		},
	}

	raw, err := buildMIME("noreply@example.com", msg)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, msg.Subject, subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	html, err := mr.NextPart()
	require.NoError(t, err)
	body := decodePart(t, html)
	assert.Equal(t, "<p>Hello</p>", body)

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "invoice-2025-11-20-000001.pdf", att.FileName())
	assert.Equal(t, "%PDF-1.3 test", decodePart(t, att))

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func decodePart(t *testing.T, p *multipart.Part) string {
	t.Helper()
	raw, err := io.ReadAll(p)
	require.NoError(t, err)
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(strings.TrimSpace(string(raw)), "\r\n", ""))
	require.NoError(t, err)
	return string(data)
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "user", Password: "pw", From: "noreply@example.com"})

	var gotAddr string
	var gotTo []string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		assert.NotNil(t, a)
		assert.Equal(t, "noreply@example.com", from)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "client@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"client@example.com"}, gotTo)
}
