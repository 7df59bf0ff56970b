package types

import (
	"fmt"

	ierr "github.com/flexprice/billing-notifier/internal/errors"
)

// PubSubType is the transport backing the event bus
type PubSubType string

const (
	MemoryPubSub PubSubType = "memory"
	KafkaPubSub  PubSubType = "kafka"
	NATSPubSub   PubSubType = "nats"
)

func (t PubSubType) Validate() error {
	switch t {
	case MemoryPubSub, KafkaPubSub, NATSPubSub:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid pubsub type: %s", t)).
		WithHint("pubsub.type must be one of memory, kafka or nats").
		Mark(ierr.ErrValidation)
}
