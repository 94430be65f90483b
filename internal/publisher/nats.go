// Package publisher emits outreach progress events to NATS and AMQP.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/models"
)

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes run progress. Failures are logged and never fail
// the run.
type NATSPublisher struct {
	js  NATSClient
	log *logger.Logger
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn *nats.Conn, log *logger.Logger) *NATSPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &NATSPublisher{js: conn, log: log}
}

// PublishAttempt publishes an attempt event.
func (p *NATSPublisher) PublishAttempt(_ context.Context, event AttemptEvent) error {
	return p.publish(SubjectAttempt, event)
}

// PublishRun publishes a run event.
func (p *NATSPublisher) PublishRun(_ context.Context, event RunEvent) error {
	return p.publish(SubjectRun, event)
}

func (p *NATSPublisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.js.Publish(subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// RunStarted publishes the start of a run.
func (p *NATSPublisher) RunStarted(ctx context.Context, run models.Run) {
	if err := p.PublishRun(ctx, RunEvent{Phase: PhaseStarted, Run: run}); err != nil {
		p.log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("failed to publish run event")
	}
}

// EntryLogged publishes an attempt.
func (p *NATSPublisher) EntryLogged(ctx context.Context, run models.Run, e models.LogEntry) {
	event := NewAttemptEvent(run, e)
	if err := p.PublishAttempt(ctx, event); err != nil {
		p.log.Warn().Err(err).Int("row", e.Row).Msg("failed to publish attempt event")
	}
}

// RunFinished publishes the end of a run.
func (p *NATSPublisher) RunFinished(ctx context.Context, run models.Run) {
	if err := p.PublishRun(ctx, RunEvent{Phase: PhaseFinished, Run: run}); err != nil {
		p.log.Warn().Err(err).Str("run_id", run.ID.String()).Msg("failed to publish run event")
	}
}
