package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/autorecruit/internal/models"
)

type amqpPublish struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type mockChannel struct {
	published []amqpPublish
	err       error
}

func (m *mockChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, amqpPublish{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestAMQPPublisher_PublishesToQueue(t *testing.T) {
	ch := &mockChannel{}
	pub := NewAMQPPublisher(ch, QueueName, nil)
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }
	ctx := context.Background()

	run := models.Run{ID: uuid.New(), Planned: 1}
	pub.RunStarted(ctx, run)
	run.Failed = 1
	pub.EntryLogged(ctx, run, models.LogEntry{Row: 3, Email: "bad", Status: models.DeliveryStatusFailed, Detail: "invalid"})
	pub.RunFinished(ctx, run)

	require.Len(t, ch.published, 3)
	for _, p := range ch.published {
		assert.Empty(t, p.exchange)
		assert.Equal(t, QueueName, p.key)
		assert.Equal(t, "application/json", p.msg.ContentType)
		assert.Equal(t, uint8(amqp.Persistent), p.msg.DeliveryMode)
		assert.Equal(t, fixed, p.msg.Timestamp)
	}
	assert.Equal(t, SubjectRun, ch.published[0].msg.Type)
	assert.Equal(t, SubjectAttempt, ch.published[1].msg.Type)

	var ev AttemptEvent
	require.NoError(t, json.Unmarshal(ch.published[1].msg.Body, &ev))
	assert.Equal(t, run.ID, ev.RunID)
	assert.Equal(t, 1, ev.Seq)
	assert.Equal(t, 3, ev.Row)
	assert.Equal(t, models.DeliveryStatusFailed, ev.Status)

	var finished RunEvent
	require.NoError(t, json.Unmarshal(ch.published[2].msg.Body, &finished))
	assert.Equal(t, PhaseFinished, finished.Phase)
}

func TestAMQPPublisher_ErrorsAreSwallowed(t *testing.T) {
	ch := &mockChannel{err: errors.New("channel closed")}
	pub := NewAMQPPublisher(ch, QueueName, nil)

	assert.NotPanics(t, func() {
		pub.RunStarted(context.Background(), models.Run{})
		pub.EntryLogged(context.Background(), models.Run{}, models.LogEntry{})
	})
	assert.Error(t, pub.publish(SubjectRun, RunEvent{}))
}
