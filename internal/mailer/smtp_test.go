package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type sentMail struct {
	from string
	to   []string
	raw  string
}

// fakeConn captures messages instead of talking to a server.
type fakeConn struct {
	sent    []sentMail
	sendErr error
	closed  int
}

func (f *fakeConn) Send(from string, to []string, msg io.WriterTo) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	f.sent = append(f.sent, sentMail{from: from, to: to, raw: buf.String()})
	return nil
}

func (f *fakeConn) Close() error {
	f.closed++
	return nil
}

func testTransport(dial func() (gomail.SendCloser, error)) *SMTPTransport {
	tr := NewSMTPTransport(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "me@example.com",
		Password: "secret",
		UseTLS:   true,
	}, nil)
	tr.dial = dial
	return tr
}

func testMessage() *Message {
	return &Message{
		From:      "me@example.com",
		FromName:  "Jane Doe",
		To:        "a@x.com",
		Subject:   "Application — Acme",
		Body:      "Dear Acme team,\nPlease find my CV attached.",
		MessageID: "<123@example.com>",
		Attachment: &Attachment{
			Filename:    "cv.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.4 fake"),
		},
	}
}

func TestSMTPTransport_SendsMessageWithAttachment(t *testing.T) {
	conn := &fakeConn{}
	tr := testTransport(func() (gomail.SendCloser, error) { return conn, nil })

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Send(context.Background(), testMessage()))
	require.NoError(t, sess.Close())

	require.Len(t, conn.sent, 1)
	got := conn.sent[0]
	assert.Equal(t, "me@example.com", got.from)
	assert.Equal(t, []string{"a@x.com"}, got.to)
	assert.Contains(t, got.raw, "To: a@x.com")
	assert.Contains(t, got.raw, "Message-ID: <123@example.com>")
	assert.Contains(t, got.raw, "Jane Doe")
	assert.Contains(t, got.raw, `filename="cv.pdf"`)
	assert.Contains(t, got.raw, "application/pdf")
	assert.Contains(t, got.raw, "multipart/mixed")
	assert.Equal(t, 1, conn.closed)
}

func TestSMTPTransport_AttachmentKeepsContentType(t *testing.T) {
	conn := &fakeConn{}
	tr := testTransport(func() (gomail.SendCloser, error) { return conn, nil })

	msg := testMessage()
	msg.Attachment.Filename = "resume.cv"

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Send(context.Background(), msg))

	require.Len(t, conn.sent, 1)
	assert.Contains(t, conn.sent[0].raw, "Content-Type: application/pdf; name=resume.cv")
	assert.NotContains(t, conn.sent[0].raw, "application/octet-stream")
}

func TestSMTPTransport_OpenValidatesConfig(t *testing.T) {
	tr := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Port: 587}, nil)

	_, err := tr.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp config")
}

func TestSMTPTransport_DialFailure(t *testing.T) {
	tr := testTransport(func() (gomail.SendCloser, error) {
		return nil, &textproto.Error{Code: 535, Msg: "authentication failed"}
	})

	_, err := tr.Open(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "dial", te.Op)
	assert.Equal(t, 535, te.Code)
	assert.False(t, te.Transient())
	assert.Contains(t, err.Error(), "535 authentication failed")
}

func TestSession_SendRejected(t *testing.T) {
	conn := &fakeConn{sendErr: &textproto.Error{Code: 550, Msg: "mailbox unavailable"}}
	tr := testTransport(func() (gomail.SendCloser, error) { return conn, nil })

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	err = sess.Send(context.Background(), testMessage())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 550, te.Code)
	assert.False(t, te.Transient())
	assert.Equal(t, 0, conn.closed, "a rejected recipient keeps the session")
}

func TestSession_RedialsAfterLostConnection(t *testing.T) {
	broken := &fakeConn{sendErr: io.EOF}
	healthy := &fakeConn{}
	dials := 0
	tr := testTransport(func() (gomail.SendCloser, error) {
		dials++
		if dials == 1 {
			return broken, nil
		}
		return healthy, nil
	})

	sess, err := tr.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	err = sess.Send(context.Background(), testMessage())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Transient())
	assert.Equal(t, 1, broken.closed)
	assert.Empty(t, healthy.sent, "failed message is not re-sent")

	require.NoError(t, sess.Send(context.Background(), testMessage()))
	assert.Equal(t, 2, dials)
	assert.Len(t, healthy.sent, 1)
}

func TestSession_SendHonorsCancelledContext(t *testing.T) {
	conn := &fakeConn{}
	tr := testTransport(func() (gomail.SendCloser, error) { return conn, nil })
	sess, err := tr.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sess.Send(ctx, testMessage()), context.Canceled)
	assert.Empty(t, conn.sent)
}

func TestSession_CloseTwice(t *testing.T) {
	conn := &fakeConn{}
	tr := testTransport(func() (gomail.SendCloser, error) { return conn, nil })
	sess, err := tr.Open(context.Background())
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.Equal(t, 1, conn.closed)
}

func TestTransportError_Transient(t *testing.T) {
	tests := []struct {
		name string
		err  *TransportError
		want bool
	}{
		{"421 busy", &TransportError{Code: 421, Err: errors.New("busy")}, true},
		{"451 local error", &TransportError{Code: 451, Err: errors.New("x")}, true},
		{"550 rejected", &TransportError{Code: 550, Err: errors.New("x")}, false},
		{"eof", &TransportError{Err: io.EOF}, true},
		{"deadline", &TransportError{Err: context.DeadlineExceeded}, true},
		{"other", &TransportError{Err: errors.New("x509: certificate")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Transient())
		})
	}
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("a@x.com"))
	assert.NoError(t, ValidateAddress(" jobs@agency.co.za "))

	for _, bad := range []string{"", "invalid-email", "a@", "@x.com", "a b@x.com"} {
		err := ValidateAddress(bad)
		var ia *InvalidAddressError
		assert.ErrorAs(t, err, &ia, bad)
	}
	assert.Equal(t, "recipient address is empty", ValidateAddress("").Error())
}

func TestPreset(t *testing.T) {
	p, err := Preset("Gmail")
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", p.Host)
	assert.Equal(t, 587, p.Port)
	assert.True(t, p.UseTLS)

	p, err = Preset("outlook")
	require.NoError(t, err)
	assert.Equal(t, "smtp.office365.com", p.Host)

	_, err = Preset("pigeon")
	assert.Error(t, err)
}

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Jane_CV.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))

	a, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane_CV.pdf", a.Filename)
	assert.Equal(t, "application/pdf", a.ContentType)
	assert.Equal(t, []byte("%PDF"), a.Content)

	var nf *AttachmentNotFoundError
	_, err = LoadAttachment(filepath.Join(dir, "missing.pdf"))
	require.ErrorAs(t, err, &nf)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = LoadAttachment(dir)
	require.ErrorAs(t, err, &nf)
	assert.True(t, strings.Contains(err.Error(), "directory"))
}
