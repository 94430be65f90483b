package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/blockedby/autorecruit/internal/config"
	"github.com/blockedby/autorecruit/internal/contacts"
	"github.com/blockedby/autorecruit/internal/database"
	"github.com/blockedby/autorecruit/internal/deliverylog"
	"github.com/blockedby/autorecruit/internal/dispatcher"
	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/mailer"
	"github.com/blockedby/autorecruit/internal/models"
	"github.com/blockedby/autorecruit/internal/nats"
	"github.com/blockedby/autorecruit/internal/publisher"
	"github.com/blockedby/autorecruit/internal/render"
	"github.com/blockedby/autorecruit/internal/repository"
)

type options struct {
	contactsPath string
	templatePath string
	cvPath       string
	candidate    string
	filter       string
	retryFrom    string
	logPath      string
	batch        int
	dryRun       bool
	preview      bool
}

func main() {
	// 1. Load config
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	opts := parseFlags(cfg)

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	log := logger.Get()

	// 3. Cancel the run on SIGINT/SIGTERM; the current send completes first
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, log); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("run cancelled")
			stop()
			os.Exit(130)
		}
		log.Error().Err(err).Msg("outreach failed")
		stop()
		os.Exit(1)
	}
}

func parseFlags(cfg *config.Config) options {
	var opts options
	flag.StringVar(&opts.contactsPath, "contacts", "", "Contacts table (.csv or .xlsx)")
	flag.StringVar(&opts.templatePath, "template", cfg.TemplateFile, "Template YAML file (default: built-in template)")
	flag.StringVar(&opts.cvPath, "cv", cfg.AttachmentPath, "CV file attached to every message")
	flag.StringVar(&opts.candidate, "name", cfg.SMTPFromName, "Candidate name for {CandidateName}")
	flag.StringVar(&opts.filter, "filter", "", "Only contacts with a field containing this text")
	flag.StringVar(&opts.retryFrom, "retry-from", "", "Delivery log CSV; send only to contacts that failed in it")
	flag.StringVar(&opts.logPath, "log", cfg.LogCSVPath, "Delivery log CSV written during the run")
	flag.IntVar(&opts.batch, "batch", cfg.SendBatchSize, "Maximum contacts per run (0 = all)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Render and log without sending")
	flag.BoolVar(&opts.preview, "preview", false, "Print the message for the first contact and exit")
	flag.Parse()
	return opts
}

func run(ctx context.Context, cfg *config.Config, opts options, log *logger.Logger) error {
	if opts.contactsPath == "" {
		return errors.New("-contacts is required")
	}

	// 4. Load contacts
	list, err := contacts.LoadFile(opts.contactsPath)
	if err != nil {
		return err
	}
	loaded := len(list)

	if opts.filter != "" {
		list = contacts.Filter(list, opts.filter)
	}

	if opts.retryFrom != "" {
		previous, err := deliverylog.ReadFile(opts.retryFrom)
		if err != nil {
			return fmt.Errorf("read previous log: %w", err)
		}
		list = dispatcher.FailedContacts(list, previous)
	}

	log.Info().
		Str("source", opts.contactsPath).
		Int("loaded", loaded).
		Int("selected", len(list)).
		Msg("contacts loaded")

	// 5. Load template
	tmpl := render.Default()
	if opts.templatePath != "" {
		if tmpl, err = render.LoadFile(opts.templatePath); err != nil {
			return err
		}
	}
	if opts.candidate != "" {
		tmpl = tmpl.Bind(map[string]string{"CandidateName": opts.candidate})
	}

	if opts.preview {
		return printPreview(tmpl, list)
	}

	// 6. Build transport and observers
	transport, err := newTransport(cfg, log)
	if err != nil {
		return err
	}

	out := deliverylog.New()
	observers := []dispatcher.Observer{deliverylog.NewFileSink(opts.logPath, out, log)}

	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open database, history disabled")
		} else {
			defer db.Close()
			observers = append(observers, repository.NewHistoryRepository(db.GORM, log))
		}
	}

	if cfg.NatsURL != "" {
		nc, err := nats.New(ctx, cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		} else {
			defer nc.Close()
			if err := nc.EnsureStream(ctx, publisher.StreamName, []string{publisher.SubjectAll}); err != nil {
				log.Warn().Err(err).Msg("failed to ensure outreach stream")
			}
			observers = append(observers, publisher.NewNATSPublisher(nc.Conn, log))
		}
	}

	if cfg.AMQPURL != "" {
		pub, closeAMQP, err := publisher.DialAMQP(cfg.AMQPURL, publisher.QueueName, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to amqp, publishing disabled")
		} else {
			defer closeAMQP()
			observers = append(observers, pub)
		}
	}

	// 7. Run
	d := dispatcher.New(transport, log, observers...)
	summary, err := d.Run(ctx, list, dispatcher.RunConfig{
		From:               cfg.SMTPFrom,
		FromName:           cfg.SMTPFromName,
		Template:           tmpl,
		AttachmentPath:     opts.cvPath,
		DelayMin:           cfg.SendDelayMin,
		DelayMax:           cfg.SendDelayMax,
		BatchSize:          opts.batch,
		BackoffOnTransient: cfg.BackoffOnTransient,
		DryRun:             opts.dryRun,
		Source:             filepath.Base(opts.contactsPath),
	}, out)
	if err != nil && summary.StartedAt.IsZero() {
		// nothing was attempted
		return err
	}

	report(summary, opts.logPath)
	return err
}

func newTransport(cfg *config.Config, log *logger.Logger) (*mailer.SMTPTransport, error) {
	preset, err := mailer.Preset(cfg.SMTPProvider)
	if err != nil {
		return nil, err
	}

	smtpCfg := mailer.SMTPConfig{
		Host:     preset.Host,
		Port:     preset.Port,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		UseTLS:   preset.UseTLS && cfg.SMTPUseTLS,
	}
	if cfg.SMTPHost != "" {
		smtpCfg.Host = cfg.SMTPHost
	}
	if cfg.SMTPPort != 0 {
		smtpCfg.Port = cfg.SMTPPort
	}

	return mailer.NewSMTPTransport(smtpCfg, log), nil
}

func printPreview(tmpl render.Template, list []models.Contact) error {
	msg, ok, err := tmpl.Preview(list)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No contacts to preview.")
		return nil
	}
	fmt.Printf("To: %s\nSubject: %s\n\n%s\n", list[0].Email(), msg.Subject, msg.Body)
	return nil
}

func report(summary models.Run, logPath string) {
	fmt.Printf("\nSent: %d  Failed: %d  Planned: %d", summary.Sent, summary.Failed, summary.Planned)
	if summary.DryRun {
		fmt.Print("  (dry run)")
	}
	if summary.Cancelled {
		fmt.Print("  (cancelled)")
	}
	fmt.Printf("\nLog: %s\n", logPath)
}
