// Package notify отправляет письма клиентам и рендерит их из каталога шаблонов.
package notify

import (
	"context"

	"go.uber.org/zap"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender доставляет письмо.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender пишет письма в лог; используется, когда SMTP не настроен.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	s.log.Info("email (smtp disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
		zap.Strings("attachments", names),
	)
	return nil
}

// CodeMailer отправляет коды подтверждения через Sender.
type CodeMailer struct {
	sender Sender
}

func NewCodeMailer(sender Sender) *CodeMailer {
	return &CodeMailer{sender: sender}
}

func (m *CodeMailer) SendCode(ctx context.Context, email, code string) error {
	return m.sender.Send(ctx, Message{
		To:      email,
		Subject: "Your verification code",
		HTML:    "<p>Your verification code is <b>" + code + "</b>.</p>",
	})
}
