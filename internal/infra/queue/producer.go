package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadmail/internal/entity"
)

// InteractionEvent is the payload published for every recorded attempt.
type InteractionEvent struct {
	InteractionID string    `json:"interaction_id"`
	LeadID        string    `json:"lead_id"`
	Type          string    `json:"type"`
	Direction     string    `json:"direction"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	Subject       string    `json:"subject"`
	MessageID     string    `json:"message_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewInteractionEvent(rec entity.Interaction) InteractionEvent {
	return InteractionEvent{
		InteractionID: rec.ID,
		LeadID:        rec.LeadID,
		Type:          string(rec.Type),
		Direction:     string(rec.Direction),
		Status:        string(rec.Status),
		Reason:        rec.Reason,
		Subject:       rec.Subject,
		MessageID:     rec.MessageID,
		OccurredAt:    rec.CreatedAt,
	}
}

// Publisher is the part of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch      Publisher
	Timeout time.Duration
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch, Timeout: 5 * time.Second}
}

func (p *RabbitMQProducer) PublishInteraction(ctx context.Context, rec entity.Interaction) error {
	body, err := json.Marshal(NewInteractionEvent(rec))
	if err != nil {
		return fmt.Errorf("encode interaction event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    rec.ID,
			Timestamp:    rec.CreatedAt,
			Type:         RoutingKey,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish interaction %s: %w", rec.ID, err)
	}
	return nil
}
