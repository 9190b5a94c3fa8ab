// Package emailtest provides an in-memory email.Mailer for tests.
package emailtest

import (
	"context"
	"strings"
	"sync"

	"payflow/internal/platform/email"
)

type Mailer struct {
	mu        sync.Mutex
	sent      []email.Message
	failures  map[string]error
	VerifyErr error
}

func New() *Mailer {
	return &Mailer{failures: map[string]error{}}
}

// FailFor makes every send to the address fail with err until cleared with nil.
func (m *Mailer) FailFor(address string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(address))
	if err == nil {
		delete(m.failures, key)
		return
	}
	m.failures[key] = err
}

func (m *Mailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[strings.ToLower(strings.TrimSpace(msg.To))]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailer) Verify(context.Context) error {
	return m.VerifyErr
}

func (m *Mailer) Sent() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]email.Message, len(m.sent))
	copy(out, m.sent)
	return out
}
