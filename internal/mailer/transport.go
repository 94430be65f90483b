// Package mailer delivers outreach messages over SMTP.
package mailer

import (
	"context"
)

// Transport opens sessions with a mail server.
type Transport interface {
	Open(ctx context.Context) (Session, error)
}

// Session sends messages over one logical connection. Close releases it.
type Session interface {
	Send(ctx context.Context, msg *Message) error
	Close() error
}

// Message is one outgoing email.
type Message struct {
	From       string
	FromName   string
	To         string
	Subject    string
	Body       string
	MessageID  string
	Attachment *Attachment
}
