// Package events публикует события о покупках в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mmeshcher/storefront/internal/model"
)

// PurchaseEvent описывает изменение статуса покупки.
type PurchaseEvent struct {
	PurchaseID    string    `json:"purchase_id"`
	ProductID     string    `json:"product_id"`
	CustomerEmail string    `json:"customer_email"`
	FinalPrice    int64     `json:"final_price"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewPurchaseEvent строит событие по текущему состоянию покупки.
func NewPurchaseEvent(p *model.Purchase, at time.Time) PurchaseEvent {
	return PurchaseEvent{
		PurchaseID:    p.ID,
		ProductID:     p.ProductID,
		CustomerEmail: p.CustomerEmail,
		FinalPrice:    p.FinalPrice,
		PaymentMethod: string(p.PaymentMethod),
		PaymentStatus: string(p.PaymentStatus),
		Timestamp:     at.UTC(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer пишет события о покупках в топик Kafka. Ключом сообщения служит идентификатор покупки.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer создаёт продьюсер для указанных брокеров и топика.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
			WriteTimeout:           2 * time.Second,
			MaxAttempts:            3,
		},
	}
}

// PublishPurchase отправляет событие о покупке.
func (p *Producer) PublishPurchase(ctx context.Context, event PurchaseEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal purchase event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PurchaseID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("purchase." + event.PaymentStatus)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return nil
}

// Close закрывает соединения с брокерами.
func (p *Producer) Close() error {
	return p.writer.Close()
}
