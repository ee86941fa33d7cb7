package mail

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConsoleSender writes messages to the log instead of delivering them and
// keeps a copy of everything it sent. It is meant for local development
// and tests.
type ConsoleSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, msg Message) (Result, error) {
	if err := msg.validate(); err != nil {
		return Result{}, err
	}
	id := uuid.NewString()
	s.logger.Info("mail (console transport)",
		zap.String("message_id", id),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text))

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return Result{MessageID: id}, nil
}

// Sent returns a copy of the messages sent so far.
func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
