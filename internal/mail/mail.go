// Package mail is the outbound mail collaborator.
package mail

import "context"

// Message is one outbound email. Body is HTML.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
