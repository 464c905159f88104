// Package mail sends the notification digests, task failure reports and
// mass emails. SMTP is used when enabled; otherwise messages are only
// logged.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/smtp"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrNoRecipients is returned for messages without a To address
var ErrNoRecipients = errors.New("mail: no recipients")

// Message is one outgoing email. HTML is optional.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer adds the site-wide recipient lists on top of a Sender
type Mailer struct {
	Sender
	managers []string
	admins   []string
}

// New creates a mailer from config
func New(cfg config.MailConfig, logger *zap.Logger) *Mailer {
	var sender Sender
	if cfg.Enabled {
		sender = NewSMTPSender(cfg)
	} else {
		sender = NewLogSender(logger)
	}
	return NewMailer(sender, cfg.Managers, cfg.Admins)
}

// NewMailer wraps sender
func NewMailer(sender Sender, managers, admins []string) *Mailer {
	return &Mailer{Sender: sender, managers: managers, admins: admins}
}

// MailManagers sends a plain text message to the configured managers
func (m *Mailer) MailManagers(ctx context.Context, subject, text string) error {
	if len(m.managers) == 0 {
		return nil
	}
	return m.Send(ctx, Message{To: m.managers, Subject: subject, Text: text})
}

// Admins returns the configured admin addresses
func (m *Mailer) Admins() []string {
	return m.admins
}

// SMTPSender delivers through an SMTP relay
type SMTPSender struct {
	addr string
	host string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender for the relay in cfg. PLAIN auth is used
// when a username is set.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	s := &SMTPSender{
		addr: cfg.Addr(),
		host: cfg.Host,
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s
}

// Send builds the MIME message and hands it to the relay
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := Build(s.from, msg, time.Now())
	if err != nil {
		return err
	}
	if err := s.send(s.addr, s.auth, s.from, msg.To, raw); err != nil {
		return fmt.Errorf("mail: send to %d recipients: %w", len(msg.To), err)
	}
	return nil
}

// Build renders msg as an RFC 5322 message. Bodies are quoted-printable
// UTF-8; a message with HTML becomes multipart/alternative.
func Build(from string, msg Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from)))
	header("MIME-Version", "1.0")

	if msg.HTML == "" {
		header("Content-Type", "text/plain; charset=utf-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, msg.Text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")
	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeQP(w, part.body); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeQP(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.Trim(addr[i+1:], "> ")
	}
	return "localhost"
}

// LogSender only logs messages. Used when SMTP is disabled.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the envelope of msg
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	s.logger.Info("Mail not sent, SMTP disabled",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// MemorySender records messages in memory
type MemorySender struct {
	mu   sync.Mutex
	sent []Message
}

// Send records msg
func (s *MemorySender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (s *MemorySender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
