package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"syscall"
)

// TransportError wraps a failure reported by the mail server or the network.
// Code is the SMTP reply code when the server sent one.
type TransportError struct {
	Op   string
	Code int
	Err  error
}

func (e *TransportError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("smtp %s: %d %s", e.Op, e.Code, replyText(e.Err))
	}
	return fmt.Sprintf("smtp %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure may clear up later: 4xx replies,
// timeouts and dropped connections.
func (e *TransportError) Transient() bool {
	if e.Code >= 400 && e.Code < 500 {
		return true
	}
	return connectionLost(e.Err)
}

// AttachmentNotFoundError reports a CV path that cannot be read.
type AttachmentNotFoundError struct {
	Path string
	Err  error
}

func (e *AttachmentNotFoundError) Error() string {
	return fmt.Sprintf("attachment not found: %s: %v", e.Path, e.Err)
}

func (e *AttachmentNotFoundError) Unwrap() error {
	return e.Err
}

// InvalidAddressError reports a recipient that is not a valid email address.
type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	if e.Address == "" {
		return "recipient address is empty"
	}
	return fmt.Sprintf("invalid recipient address %q", e.Address)
}

func wrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	te := &TransportError{Op: op, Err: err}
	var perr *textproto.Error
	if errors.As(err, &perr) {
		te.Code = perr.Code
	}
	return te
}

func replyText(err error) string {
	var perr *textproto.Error
	if errors.As(err, &perr) {
		return perr.Msg
	}
	return err.Error()
}

// connectionLost reports errors after which the SMTP connection is unusable.
func connectionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
