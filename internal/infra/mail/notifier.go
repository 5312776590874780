package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
	"github.com/arklim/taskboard-auth/internal/infra/config"
	"github.com/arklim/taskboard-auth/internal/infra/logger"
)

const (
	resetSubject = "Password Reset Request"
	defaultFrom  = `"Todo Dashboard App" <no-reply@tododashboard.com>`
)

var resetBody = template.Must(template.New("reset").Parse(`<h2>Password Reset Request</h2>
<p>Hi {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},</p>
<p>You requested a password reset for your account.</p>
<p>Click the link below to reset your password:</p>
<a href="{{.ResetURL}}" style="padding: 10px 20px; background-color: #007bff; color: white; text-decoration: none; border-radius: 5px;">Reset Password</a>
<p>This link will expire in {{.ValidFor}}.</p>
<p>If you did not request this, please ignore this email.</p>
`))

// SMTPNotifier sends password reset links over SMTP.
type SMTPNotifier struct {
	from   string
	dialer *gomail.Dialer
	send   func(*gomail.Message) error
	logger *zap.Logger
}

// NewSMTPNotifier builds a notifier from the SMTP settings.
func NewSMTPNotifier(cfg config.SMTPSettings, log *zap.Logger) *SMTPNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = defaultFrom
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	n := &SMTPNotifier{from: from, dialer: dialer, logger: log}
	n.send = func(m *gomail.Message) error { return n.dialer.DialAndSend(m) }
	return n
}

// SendPasswordReset delivers msg. gomail has no context support, so ctx only short-circuits
// sends that were already cancelled.
func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, msg domain.PasswordResetMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	m, err := n.buildMessage(msg)
	if err != nil {
		return err
	}
	if err := n.send(m); err != nil {
		return fmt.Errorf("mail: send password reset: %w", err)
	}

	logger.Scoped(ctx, n.logger).Info("password reset mail sent", zap.String("to", logger.MaskEmail(msg.To)))
	return nil
}

func (n *SMTPNotifier) buildMessage(msg domain.PasswordResetMessage) (*gomail.Message, error) {
	body, err := renderResetBody(msg)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", resetSubject)
	m.SetBody("text/html", body)
	return m, nil
}

type resetBodyData struct {
	FirstName string
	ResetURL  string
	ValidFor  string
}

// validityText renders d as "1 hour", "30 minutes" and so on.
func validityText(d time.Duration) string {
	if d <= 0 {
		d = time.Hour
	}
	start := time.Unix(0, 0)
	return strings.TrimSpace(humanize.RelTime(start, start.Add(d), "", ""))
}

func renderResetBody(msg domain.PasswordResetMessage) (string, error) {
	data := resetBodyData{
		FirstName: msg.FirstName,
		ResetURL:  msg.ResetURL,
		ValidFor:  validityText(msg.ValidFor),
	}

	var buf bytes.Buffer
	if err := resetBody.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render reset body: %w", err)
	}
	return buf.String(), nil
}

// LogNotifier is used when no SMTP host is configured. It never logs the link itself.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, msg domain.PasswordResetMessage) error {
	logger.Scoped(ctx, n.logger).Warn("smtp not configured; password reset mail dropped",
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}

// NewNotifier picks SMTP delivery when a host is configured.
func NewNotifier(cfg config.SMTPSettings, log *zap.Logger) port.ResetNotifier {
	if strings.TrimSpace(cfg.Host) == "" {
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg, log)
}

var (
	_ port.ResetNotifier = (*SMTPNotifier)(nil)
	_ port.ResetNotifier = (*LogNotifier)(nil)
)
