// Package smtp delivers mail over plain SMTP with PLAIN auth.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"ludendorff/internal/mail"
)

type Sender struct {
	addr string // host:port
	auth smtp.Auth
}

func New(addr, username, password string) *Sender {
	host := addr
	if i := strings.IndexByte(addr, ':'); i >= 0 {
		host = addr[:i]
	}
	return &Sender{
		addr: addr,
		auth: smtp.PlainAuth("", username, password, host),
	}
}

func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)

	if err := smtp.SendMail(s.addr, s.auth, msg.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
