package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"poker-coach/internal/messaging"
	"poker-coach/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	declareErr error
	failFirst  int
	published  []amqp.Publishing
	exchanges  []string
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("channel busy")
	}
	if f.publishErr != nil {
		return f.publishErr
	}
	f.exchanges = append(f.exchanges, exchange)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func sampleEvent() models.HandEvent {
	return models.HandEvent{
		EventID:        "ev-1",
		SessionID:      "s1",
		UserID:         "u1",
		Street:         models.StreetFlop,
		StageLabel:     "flop",
		Hole:           []string{"AH", "KH"},
		Board:          []string{"2C", "7D", "QH"},
		WinProbability: 0.62,
		Tip:            "Bet for value.",
		OccurredAt:     time.UnixMilli(1700000000000).UTC(),
	}
}

func TestNewRabbitMQPublisher_DeclaresFanoutExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := messaging.NewRabbitMQPublisher(ch, "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{messaging.HandEventsExchange + ":fanout"}, ch.declared)
}

func TestNewRabbitMQPublisher_DeclareErrorClosesChannel(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := messaging.NewRabbitMQPublisher(ch, "events", zap.NewNop())
	require.Error(t, err)
	assert.True(t, ch.closed)
}

func TestPublishHandEvent(t *testing.T) {
	ch := &fakeChannel{}
	p, err := messaging.NewRabbitMQPublisher(ch, "events", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, p.PublishHandEvent(context.Background(), sampleEvent()))
	require.Len(t, ch.published, 1)

	msg := ch.published[0]
	assert.Equal(t, "events", ch.exchanges[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "ev-1", msg.MessageId)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var decoded models.HandEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, sampleEvent(), decoded)
}

func TestPublishHandEvent_Retries(t *testing.T) {
	ch := &fakeChannel{failFirst: 2}
	p, err := messaging.NewRabbitMQPublisher(ch, "events", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, p.PublishHandEvent(context.Background(), sampleEvent()))
	assert.Len(t, ch.published, 1)
}

func TestPublishHandEvent_GivesUp(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("connection closed")}
	p, err := messaging.NewRabbitMQPublisher(ch, "events", zap.NewNop())
	require.NoError(t, err)

	err = p.PublishHandEvent(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNopPublisher(t *testing.T) {
	var p messaging.HandEventPublisher = messaging.NopPublisher{}
	assert.NoError(t, p.PublishHandEvent(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
