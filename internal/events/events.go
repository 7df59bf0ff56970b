package events

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/types"
)

// GenerationCompleted is published upstream once the invoices of a billing date
// exist. Field names follow the producer's wire format.
type GenerationCompleted struct {
	BillingDate    string `json:"fechaCobro"`
	GeneratedCount int    `json:"cantidadGenerada"`
}

// DocumentsGenerated is published after a generation run over a cohort
type DocumentsGenerated struct {
	BillingDate   string    `json:"fechaCobro"`
	DocumentCount int       `json:"cantidadPdfsGenerados"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewDocumentsGenerated builds the event for a finished generation run
func NewDocumentsGenerated(billingDate time.Time, count int) *DocumentsGenerated {
	return &DocumentsGenerated{
		BillingDate:   billingDate.UTC().Format(types.DateLayout),
		DocumentCount: count,
		Timestamp:     time.Now().UTC(),
	}
}

// ParseGenerationCompleted decodes the payload and normalizes the billing date
func ParseGenerationCompleted(msg *message.Message) (*GenerationCompleted, time.Time, error) {
	var event GenerationCompleted
	if err := decode(msg, &event); err != nil {
		return nil, time.Time{}, err
	}

	billingDate, err := types.ParseBillingDate(event.BillingDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &event, billingDate, nil
}

// ParseDocumentsGenerated decodes the payload and normalizes the billing date
func ParseDocumentsGenerated(msg *message.Message) (*DocumentsGenerated, time.Time, error) {
	var event DocumentsGenerated
	if err := decode(msg, &event); err != nil {
		return nil, time.Time{}, err
	}

	billingDate, err := types.ParseBillingDate(event.BillingDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &event, billingDate, nil
}

func decode(msg *message.Message, v any) error {
	if msg == nil || len(msg.Payload) == 0 {
		return ierr.NewError("empty event payload").
			WithHint("The event has no payload").
			Mark(ierr.ErrValidation)
	}

	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return ierr.WithError(err).
			WithHint("The event payload is not valid JSON").
			WithReportableDetails(map[string]any{"message_uuid": msg.UUID}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
