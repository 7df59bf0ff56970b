package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/flexprice/billing-notifier/internal/pubsub/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerationCompleted(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    time.Time
		wantErr bool
	}{
		{
			name:    "date only",
			payload: `{"fechaCobro":"2025-11-01","cantidadGenerada":3}`,
			want:    time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "rfc3339 is truncated to the utc day",
			payload: `{"fechaCobro":"2025-11-01T18:30:00-05:00","cantidadGenerada":3}`,
			want:    time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "missing date",
			payload: `{"cantidadGenerada":3}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `fechaCobro=2025-11-01`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, billingDate, err := ParseGenerationCompleted(message.NewMessage("1", []byte(tt.payload)))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 3, event.GeneratedCount)
			assert.True(t, tt.want.Equal(billingDate))
		})
	}
}

func TestParseDocumentsGeneratedEmptyPayload(t *testing.T) {
	_, _, err := ParseDocumentsGenerated(message.NewMessage("1", nil))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestPublishDocumentsGenerated(t *testing.T) {
	cfg := &config.Configuration{Notification: config.NotificationConfig{
		GenerationCompletedTopic: "generacion_cuentas_cobro_completada",
		DocumentsGeneratedTopic:  "pdfs_cuentas_cobro_generados",
	}}
	log := logger.NewNopLogger()
	bus := memory.NewPubSub(log)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx, cfg.Notification.DocumentsGeneratedTopic)
	require.NoError(t, err)

	pub := NewPublisher(bus, cfg, log)
	event := NewDocumentsGenerated(time.Date(2025, 11, 1, 15, 0, 0, 0, time.UTC), 2)
	require.NoError(t, pub.PublishDocumentsGenerated(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		var got map[string]any
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "2025-11-01", got["fechaCobro"])
		assert.EqualValues(t, 2, got["cantidadPdfsGenerados"])
		assert.Contains(t, got, "timestamp")
		assert.Equal(t, "2025-11-01", msg.Metadata.Get("billing_date"))

		parsed, billingDate, err := ParseDocumentsGenerated(msg)
		require.NoError(t, err)
		assert.Equal(t, 2, parsed.DocumentCount)
		assert.Equal(t, 2025, billingDate.Year())
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}
