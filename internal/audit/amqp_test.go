package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarlens/analyzer/internal/domain"
)

type fakePublisher struct {
	err      error
	exchange string
	key      string
	msgs     []amqp091.Publishing
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.exchange, p.key = exchange, key
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestAMQPSink_Append(t *testing.T) {
	pub := &fakePublisher{}
	sink := &AMQPSink{pub: pub, exchange: "sar.audit", routingKey: "audit.record"}

	rec := domain.AuditRecord{Date: "2024-03-01 09:15:00", RiskScore: 21, Total: 500, Transactions: 5}
	require.NoError(t, sink.Append(context.Background(), rec))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "sar.audit", pub.exchange)
	assert.Equal(t, "audit.record", pub.key)

	msg := pub.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, `{"date": "2024-03-01 09:15:00", "risk_score": 21.0, "total": 500.0, "transactions": 5}`, string(msg.Body))
}

func TestAMQPSink_PublishError(t *testing.T) {
	sink := &AMQPSink{pub: &fakePublisher{err: errors.New("channel closed")}, exchange: "x", routingKey: "k"}

	err := sink.Append(context.Background(), domain.AuditRecord{Date: "d"})
	require.Error(t, err)
	assert.Equal(t, []string{"amqp"}, FailedSinks(err))
	assert.Contains(t, err.Error(), "channel closed")
}

func TestAMQPSink_CloseWithoutConnection(t *testing.T) {
	assert.NoError(t, (&AMQPSink{}).Close())
}
