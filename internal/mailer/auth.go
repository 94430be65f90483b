package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// ErrInsecureAuth is returned when the server would receive credentials over
// an unencrypted connection, e.g. because it did not offer STARTTLS.
var ErrInsecureAuth = errors.New("refusing to authenticate without TLS")

// tlsAuth authenticates only once the connection is encrypted. It picks the
// first mechanism the server supports among PLAIN, LOGIN and CRAM-MD5.
type tlsAuth struct {
	host     string
	username string
	password string

	mech smtp.Auth
}

func newTLSAuth(host, username, password string) *tlsAuth {
	return &tlsAuth{host: host, username: username, password: password}
}

func (a *tlsAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, ErrInsecureAuth
	}

	switch {
	case hasMechanism(server.Auth, "PLAIN"):
		a.mech = smtp.PlainAuth("", a.username, a.password, a.host)
	case hasMechanism(server.Auth, "LOGIN"):
		a.mech = &loginAuth{username: a.username, password: a.password}
	case hasMechanism(server.Auth, "CRAM-MD5"):
		a.mech = smtp.CRAMMD5Auth(a.username, a.password)
	default:
		return "", nil, fmt.Errorf("no supported auth mechanism in %v", server.Auth)
	}
	return a.mech.Start(server)
}

func (a *tlsAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	return a.mech.Next(fromServer, more)
}

func hasMechanism(list []string, name string) bool {
	for _, m := range list {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

// loginAuth implements AUTH LOGIN, which net/smtp lacks and Office 365 needs.
type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(*smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(strings.TrimSuffix(string(fromServer), ":"))) {
	case "username":
		return []byte(a.username), nil
	case "password":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected LOGIN challenge %q", fromServer)
	}
}
