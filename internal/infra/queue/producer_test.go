package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadmail/internal/entity"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func sampleInteraction() entity.Interaction {
	return entity.Interaction{
		ID:        "i-1",
		LeadID:    "L1",
		Type:      entity.InteractionEmail,
		Direction: entity.DirectionOutbound,
		Subject:   "Bonjour Jean",
		Body:      "not published",
		Status:    entity.InteractionFailed,
		Reason:    "Timeout",
		CreatedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestPublishInteraction(t *testing.T) {
	pub := new(MockPublisher)
	var sent amqp.Publishing
	pub.On("PublishWithContext", mock.Anything, ExchangeName, RoutingKey, false, false, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil).Once()

	err := NewProducer(pub).PublishInteraction(context.Background(), sampleInteraction())

	require.NoError(t, err)
	pub.AssertExpectations(t)
	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, amqp.Persistent, sent.DeliveryMode)
	assert.Equal(t, "i-1", sent.MessageId)

	var event InteractionEvent
	require.NoError(t, json.Unmarshal(sent.Body, &event))
	assert.Equal(t, "L1", event.LeadID)
	assert.Equal(t, "failed", event.Status)
	assert.Equal(t, "Timeout", event.Reason)
	assert.NotContains(t, string(sent.Body), "not published")
}

func TestPublishInteraction_WrapsBrokerError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(amqp.ErrClosed)

	err := NewProducer(pub).PublishInteraction(context.Background(), sampleInteraction())

	require.Error(t, err)
	assert.True(t, errors.Is(err, amqp.ErrClosed))
}
