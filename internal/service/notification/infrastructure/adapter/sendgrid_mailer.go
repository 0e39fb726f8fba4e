// internal/service/notification/infrastructure/adapter/sendgrid_mailer.go
package adapter

import (
	"context"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/service/notification/domain/port"
)

// SendGridMailer 通过 SendGrid v3 API 发送邮件
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

var _ port.Mailer = (*SendGridMailer)(nil)

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), body, "<p>"+html.EscapeString(body)+"</p>")
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return apperr.Upstream(err, "sendgrid send")
	}
	if resp.StatusCode >= 300 {
		return apperr.Upstream(nil, "sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
