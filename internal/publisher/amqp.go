package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/models"
)

// QueueName is the durable queue outreach events are sent to.
const QueueName = "outreach_events"

// AMQPChannel is the part of *amqp.Channel the publisher needs.
type AMQPChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher sends the same events as NATSPublisher to a RabbitMQ queue.
// The event subject travels in the message Type.
type AMQPPublisher struct {
	ch    AMQPChannel
	queue string
	log   *logger.Logger
	now   func() time.Time
}

// NewAMQPPublisher creates a publisher on an open channel.
func NewAMQPPublisher(ch AMQPChannel, queue string, log *logger.Logger) *AMQPPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &AMQPPublisher{ch: ch, queue: queue, log: log, now: time.Now}
}

// DialAMQP connects to url, declares the durable queue and returns a
// publisher with a function that closes the channel and connection.
func DialAMQP(url, queue string, log *logger.Logger) (*AMQPPublisher, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	closeFn := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return NewAMQPPublisher(ch, q.Name, log), closeFn, nil
}

func (p *AMQPPublisher) publish(subject string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.ch.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         subject,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

// RunStarted publishes the start of a run.
func (p *AMQPPublisher) RunStarted(_ context.Context, run models.Run) {
	if err := p.publish(SubjectRun, RunEvent{Phase: PhaseStarted, Run: run}); err != nil {
		p.log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("failed to publish run event")
	}
}

// EntryLogged publishes an attempt.
func (p *AMQPPublisher) EntryLogged(_ context.Context, run models.Run, e models.LogEntry) {
	if err := p.publish(SubjectAttempt, NewAttemptEvent(run, e)); err != nil {
		p.log.Warn().Err(err).Int("row", e.Row).Msg("failed to publish attempt event")
	}
}

// RunFinished publishes the end of a run.
func (p *AMQPPublisher) RunFinished(_ context.Context, run models.Run) {
	if err := p.publish(SubjectRun, RunEvent{Phase: PhaseFinished, Run: run}); err != nil {
		p.log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("failed to publish run event")
	}
}
