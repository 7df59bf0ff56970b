package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/billing-notifier/internal/email"
	"github.com/flexprice/billing-notifier/internal/types"
)

// RecordingEmailProvider implements email.Provider and keeps every sent message
type RecordingEmailProvider struct {
	mu      sync.Mutex
	sent    []email.Message
	failFor map[string]error
	onSend  func(msg *email.Message)
}

var _ email.Provider = (*RecordingEmailProvider)(nil)

func NewRecordingEmailProvider() *RecordingEmailProvider {
	return &RecordingEmailProvider{failFor: make(map[string]error)}
}

// FailFor makes sends to recipient return err
func (p *RecordingEmailProvider) FailFor(recipient string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failFor[recipient] = err
}

// OnSend registers fn to run after every accepted message
func (p *RecordingEmailProvider) OnSend(fn func(msg *email.Message)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSend = fn
}

func (p *RecordingEmailProvider) Name() types.EmailProvider {
	return types.EmailProviderLog
}

func (p *RecordingEmailProvider) Send(ctx context.Context, msg *email.Message) (string, error) {
	p.mu.Lock()
	if err := p.failFor[msg.To]; err != nil {
		p.mu.Unlock()
		return "", err
	}
	p.sent = append(p.sent, *msg)
	id := fmt.Sprintf("msg_%d", len(p.sent))
	onSend := p.onSend
	p.mu.Unlock()

	if onSend != nil {
		onSend(msg)
	}
	return id, nil
}

// Sent returns the accepted messages
func (p *RecordingEmailProvider) Sent() []email.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]email.Message(nil), p.sent...)
}

// SentTo returns the accepted messages for one recipient
func (p *RecordingEmailProvider) SentTo(recipient string) []email.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []email.Message
	for _, m := range p.sent {
		if m.To == recipient {
			out = append(out, m)
		}
	}
	return out
}

func (p *RecordingEmailProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSend = nil
	p.sent = nil
	p.failFor = make(map[string]error)
}
