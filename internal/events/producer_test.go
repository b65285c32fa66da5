package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/model"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishPurchase(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "storefront.purchases"}

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	purchase := &model.Purchase{
		ID:            "pur-1",
		ProductID:     "prod-1",
		CustomerEmail: "ana@example.com",
		FinalPrice:    8100,
		PaymentMethod: model.PaymentMethodCard,
		PaymentStatus: model.PaymentStatusCompleted,
	}

	require.NoError(t, p.PublishPurchase(context.Background(), NewPurchaseEvent(purchase, at)))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "pur-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "purchase.completed", string(msg.Headers[0].Value))

	var got PurchaseEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, int64(8100), got.FinalPrice)
	assert.Equal(t, "completed", got.PaymentStatus)
	assert.True(t, got.Timestamp.Equal(at))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishPurchase_WriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := &Producer{writer: w, topic: "storefront.purchases"}

	err := p.PublishPurchase(context.Background(), PurchaseEvent{PurchaseID: "x"})
	assert.ErrorContains(t, err, "storefront.purchases")
}
