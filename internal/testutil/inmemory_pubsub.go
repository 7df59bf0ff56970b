package testutil

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billing-notifier/internal/pubsub"
)

var _ pubsub.PubSub = (*InMemoryPubSub)(nil)

// InMemoryPubSub is an in-memory implementation of pubsub.PubSub that keeps
// every published message for assertions
type InMemoryPubSub struct {
	subscribers map[string][]chan *message.Message
	messages    map[string][]*message.Message
	mu          sync.RWMutex
}

// NewInMemoryPubSub creates a new instance of InMemoryPubSub
func NewInMemoryPubSub() *InMemoryPubSub {
	return &InMemoryPubSub{
		subscribers: make(map[string][]chan *message.Message),
		messages:    make(map[string][]*message.Message),
	}
}

// Publish implements pubsub.Publisher interface
func (ps *InMemoryPubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.messages[topic] = append(ps.messages[topic], msg)

	for _, ch := range ps.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// full subscriber channel, the message stays in GetMessages
		}
	}
	return nil
}

// Subscribe implements pubsub.Subscriber interface. Earlier messages are replayed.
func (ps *InMemoryPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan *message.Message, 100)
	ps.subscribers[topic] = append(ps.subscribers[topic], ch)

	if messages, ok := ps.messages[topic]; ok {
		replay := append([]*message.Message(nil), messages...)
		go func() {
			for _, msg := range replay {
				select {
				case ch <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return ch, nil
}

// Close implements pubsub.PubSub interface
func (ps *InMemoryPubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, subscribers := range ps.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
	}

	ps.subscribers = make(map[string][]chan *message.Message)
	ps.messages = make(map[string][]*message.Message)
	return nil
}

// GetMessages returns all messages published to a topic
func (ps *InMemoryPubSub) GetMessages(topic string) []*message.Message {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return append([]*message.Message(nil), ps.messages[topic]...)
}

// ClearMessages clears all stored messages
func (ps *InMemoryPubSub) ClearMessages() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.messages = make(map[string][]*message.Message)
}
