package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mail "github.com/go-mail/mail/v2"
	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/models"
)

// NotificationLogStore records every delivery attempt.
type NotificationLogStore interface {
	InsertNotificationLog(ctx context.Context, log *models.NotificationLog) error
}

type MailerOptions struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	StartTLS  bool
	AppURL    string // linked from welcome and approval mails
	AppName   string
	DialLimit time.Duration
}

// Mailer delivers notifications over SMTP.
type Mailer struct {
	dialer *mail.Dialer
	from   string
	render Renderer
	logs   NotificationLogStore
	log    *slog.Logger
}

func NewMailer(o MailerOptions, logs NotificationLogStore, log *slog.Logger) *Mailer {
	d := mail.NewDialer(o.Host, o.Port, o.Username, o.Password)
	if o.StartTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	if o.DialLimit > 0 {
		d.Timeout = o.DialLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{
		dialer: d,
		from:   o.From,
		render: Renderer{AppName: o.AppName, AppURL: o.AppURL},
		logs:   logs,
		log:    log,
	}
}

func (m *Mailer) Send(ctx context.Context, n auth.Notification) error {
	subject, body := m.render.Render(n)
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", n.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	err := m.dialer.DialAndSend(msg)
	if err != nil {
		err = fmt.Errorf("smtp send %s: %w", n.Kind, err)
	}
	recordAttempt(ctx, m.logs, m.log, n, subject, err)
	return err
}

// LogNotifier stands in for SMTP in development: it only logs. Codes are logged at
// debug level so a developer can finish a reset flow locally.
type LogNotifier struct {
	render Renderer
	logs   NotificationLogStore
	log    *slog.Logger
}

func NewLogNotifier(appName string, logs NotificationLogStore, log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{render: Renderer{AppName: appName}, logs: logs, log: log}
}

func (l *LogNotifier) Send(ctx context.Context, n auth.Notification) error {
	subject, _ := l.render.Render(n)
	l.log.InfoContext(ctx, "notification (smtp disabled)", "kind", n.Kind, "to", n.To, "subject", subject)
	if code, ok := n.Data["code"]; ok {
		l.log.DebugContext(ctx, "otp code", "to", n.To, "code", code)
	}
	recordAttempt(ctx, l.logs, l.log, n, subject, nil)
	return nil
}

func recordAttempt(ctx context.Context, logs NotificationLogStore, log *slog.Logger, n auth.Notification, subject string, sendErr error) {
	if logs == nil {
		return
	}
	entry := &models.NotificationLog{
		Kind:    string(n.Kind),
		ToEmail: n.To,
		Subject: subject,
		Success: sendErr == nil,
		SentAt:  time.Now(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if err := logs.InsertNotificationLog(ctx, entry); err != nil {
		log.WarnContext(ctx, "notification log write failed", "kind", n.Kind, "err", err)
	}
}
