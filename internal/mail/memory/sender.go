// Package memory captures outbound mail for tests.
package memory

import (
	"context"
	"sync"

	"ludendorff/internal/mail"
)

type Sender struct {
	mu   sync.Mutex
	sent []mail.Message
	// Err, when set, is returned from every call.
	Err error
}

func New() *Sender {
	return &Sender{}
}

func (s *Sender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *Sender) Sent() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message{}, s.sent...)
}
