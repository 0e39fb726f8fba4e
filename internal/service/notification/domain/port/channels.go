package port

import "context"

// Pusher 把通知实时推送给在线用户
type Pusher interface {
	Push(ctx context.Context, userID string, payload []byte) error
}

// Mailer 发送邮件通知
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
