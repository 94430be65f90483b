// Package dispatcher sends one personalized message per contact, strictly in
// order, pausing between sends and logging every outcome.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/autorecruit/internal/deliverylog"
	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/mailer"
	"github.com/blockedby/autorecruit/internal/models"
)

const (
	previewRunes = 1000
	dryRunDetail = "dry run"
)

// Dispatcher drives outreach runs. A Dispatcher handles one run at a time.
type Dispatcher struct {
	transport mailer.Transport
	observers []Observer
	log       *logger.Logger

	now   func() time.Time
	sleep sleepFunc
	rng   *rand.Rand
}

// New creates a Dispatcher sending through transport.
func New(transport mailer.Transport, log *logger.Logger, observers ...Observer) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		transport: transport,
		observers: observers,
		log:       log,
		now:       time.Now,
		sleep:     sleepContext,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
}

// Run sends to contacts in order and appends one entry per attempt to out.
//
// Configuration and attachment problems, and a transport that cannot be
// opened, abort the run before anything is sent. Per-contact failures are
// logged as FAILED and the run continues. When ctx is cancelled the run stops
// between contacts and returns ctx.Err() together with the partial summary;
// out stays valid and exportable.
func (d *Dispatcher) Run(ctx context.Context, contacts []models.Contact, cfg RunConfig, out *deliverylog.Log) (models.Run, error) {
	if out == nil {
		return models.Run{}, errors.New("delivery log is nil")
	}
	if err := cfg.Validate(); err != nil {
		return models.Run{}, err
	}
	attachment, err := mailer.LoadAttachment(cfg.AttachmentPath)
	if err != nil {
		return models.Run{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Run{}, err
	}

	if cfg.BatchSize > 0 && len(contacts) > cfg.BatchSize {
		contacts = contacts[:cfg.BatchSize]
	}

	var sess mailer.Session
	if !cfg.DryRun {
		if d.transport == nil {
			return models.Run{}, errors.New("mail transport is not configured")
		}
		sess, err = d.transport.Open(ctx)
		if err != nil {
			return models.Run{}, fmt.Errorf("open mail transport: %w", err)
		}
		defer func() {
			if err := sess.Close(); err != nil {
				d.log.Warn().Err(err).Msg("failed to close mail session")
			}
		}()
	}

	run := models.Run{
		ID:        uuid.New(),
		Source:    cfg.Source,
		DryRun:    cfg.DryRun,
		Planned:   len(contacts),
		StartedAt: d.now().UTC(),
	}
	log := d.log.With().Str("run_id", run.ID.String()).Logger()
	log.Info().
		Int("contacts", run.Planned).
		Bool("dry_run", run.DryRun).
		Str("attachment", attachment.Filename).
		Msg("run started")

	// observers keep recording after cancellation so the history matches the log
	notifyCtx := context.WithoutCancel(ctx)
	for _, o := range d.observers {
		o.RunStarted(notifyCtx, run)
	}

	throttle := NewThrottle(cfg.DelayMin, cfg.DelayMax, d.now, d.sleep, d.rng)
	domain := senderDomain(cfg.From)

	var runErr error
	for i, c := range contacts {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if !cfg.DryRun {
			if err := throttle.Ready(ctx); err != nil {
				runErr = err
				break
			}
		}

		entry, err := d.attempt(ctx, sess, c, cfg, attachment, domain)
		out.Append(entry)
		if entry.Failed() {
			run.Failed++
		} else {
			run.Sent++
		}

		ev := log.Info()
		if entry.Failed() {
			ev = log.Warn().Str("reason", entry.Detail)
		}
		ev.Int("row", entry.Row).
			Str("email", entry.Email).
			Str("status", string(entry.Status)).
			Msg("contact processed")

		for _, o := range d.observers {
			o.EntryLogged(notifyCtx, run, entry)
		}

		var te *mailer.TransportError
		if errors.As(err, &te) && te.Transient() && cfg.BackoffOnTransient > 0 {
			log.Warn().Dur("backoff", cfg.BackoffOnTransient).Msg("transient provider error, slowing down")
			throttle.SetBackoff(cfg.BackoffOnTransient)
		}

		if i == len(contacts)-1 || cfg.DryRun {
			continue
		}
		waited, err := throttle.Pause(ctx)
		if err != nil {
			runErr = err
			break
		}
		log.Debug().Dur("delay", waited).Msg("paused before next send")
	}

	finished := d.now().UTC()
	run.FinishedAt = &finished
	run.Cancelled = runErr != nil

	for _, o := range d.observers {
		o.RunFinished(notifyCtx, run)
	}

	log.Info().
		Int("sent", run.Sent).
		Int("failed", run.Failed).
		Bool("cancelled", run.Cancelled).
		Msg("run finished")

	return run, runErr
}

// attempt processes one contact and returns its log entry together with the
// error that failed it, if any.
func (d *Dispatcher) attempt(ctx context.Context, sess mailer.Session, c models.Contact, cfg RunConfig, att *mailer.Attachment, domain string) (models.LogEntry, error) {
	a := newAttempt(c.Row)
	step := func(to AttemptState) {
		if err := a.advance(to); err != nil {
			d.log.Error().Err(err).Msg("attempt state")
		}
	}

	entry := models.LogEntry{
		Timestamp:  d.now().UTC(),
		Row:        c.Row,
		AgencyName: c.AgencyName(),
		Email:      strings.TrimSpace(c.Email()),
	}
	fail := func(err error) (models.LogEntry, error) {
		step(StateFailed)
		entry.Status = models.DeliveryStatusFailed
		entry.Detail = err.Error()
		return entry, err
	}

	step(StateRendering)
	msg, err := cfg.Template.Render(c)
	if err != nil {
		return fail(err)
	}
	entry.Subject = msg.Subject
	entry.Preview = preview(msg.Body)

	if err := mailer.ValidateAddress(entry.Email); err != nil {
		return fail(err)
	}

	step(StateSending)
	if cfg.DryRun {
		entry.Detail = dryRunDetail
	} else {
		messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
		// a send in flight is never interrupted
		err := sess.Send(context.WithoutCancel(ctx), &mailer.Message{
			From:       cfg.From,
			FromName:   cfg.FromName,
			To:         entry.Email,
			Subject:    msg.Subject,
			Body:       msg.Body,
			MessageID:  messageID,
			Attachment: att,
		})
		if err != nil {
			return fail(err)
		}
		entry.MessageID = messageID
	}

	step(StateSent)
	entry.Status = models.DeliveryStatusSent
	return entry, nil
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewRunes {
		return body
	}
	return string(r[:previewRunes])
}

func senderDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "autorecruit"
}
