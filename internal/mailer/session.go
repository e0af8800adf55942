package mailer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"net"
	"net/textproto"
	"strconv"
	"time"
)

// Dialer opens raw TCP streams. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type sessionState int

const (
	stateConnected sessionState = iota
	stateGreeted
	stateTLSUpgraded
	stateAuthenticated
	stateMailFromSent
	stateRcptToSent
	stateDataSent
	stateQuitSent
)

func (s sessionState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateGreeted:
		return "greeted"
	case stateTLSUpgraded:
		return "tls_upgraded"
	case stateAuthenticated:
		return "authenticated"
	case stateMailFromSent:
		return "mail_from_sent"
	case stateRcptToSent:
		return "rcpt_to_sent"
	case stateDataSent:
		return "data_sent"
	case stateQuitSent:
		return "quit_sent"
	}
	return "unknown"
}

// session is one synchronous SMTP exchange over a single connection.
type session struct {
	conn     net.Conn
	text     *textproto.Conn
	state    sessionState
	timeout  time.Duration
	starttls bool
}

// codeAccepted applies the relay reply rule: an exact match, or any code in
// the same hundreds class as the expected one.
func codeAccepted(expected, actual int) bool {
	if actual == expected {
		return true
	}
	return actual/100 == expected/100
}

// dial opens the relay stream. In implicit-TLS mode a failure on the
// implicit-TLS port is retried exactly once in plaintext on the STARTTLS
// port, and the session continues as STARTTLS. Each attempt gets its own
// dial timeout.
func dial(ctx context.Context, d Dialer, cfg Config) (*session, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	enc, _ := ParseEncryption(string(cfg.Encryption))

	if enc != EncryptionSSL {
		conn, err := dialPlain(ctx, d, addr, cfg.dialTimeout())
		if err != nil {
			return nil, &ConnectionError{Addr: addr, Err: err}
		}
		return newSession(conn, cfg, enc.usesStartTLS()), nil
	}

	conn, err := dialImplicitTLS(ctx, d, addr, cfg.tlsConfig(), cfg.dialTimeout())
	if err == nil {
		return newSession(conn, cfg, false), nil
	}
	if cfg.Port != ImplicitTLSPort {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	fallback := net.JoinHostPort(cfg.Host, strconv.Itoa(StartTLSPort))
	plain, ferr := dialPlain(ctx, d, fallback, cfg.dialTimeout())
	if ferr != nil {
		return nil, &ConnectionError{Addr: addr, Fallback: fallback, FirstErr: err, Err: ferr}
	}
	return newSession(plain, cfg, true), nil
}

func dialPlain(ctx context.Context, d Dialer, addr string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.DialContext(ctx, "tcp", addr)
}

func dialImplicitTLS(ctx context.Context, d Dialer, addr string, tlsCfg *tls.Config, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	conn := tls.Client(raw, tlsCfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, err
	}
	return conn, nil
}

func newSession(conn net.Conn, cfg Config, starttls bool) *session {
	return &session{
		conn:     conn,
		text:     textproto.NewConn(conn),
		state:    stateConnected,
		timeout:  cfg.commandTimeout(),
		starttls: starttls,
	}
}

func (s *session) close() error {
	return s.text.Close()
}

func (s *session) setDeadline() {
	if s.timeout > 0 {
		_ = s.conn.SetDeadline(time.Now().Add(s.timeout))
	}
}

// expect reads one (possibly multi-line) reply and checks its code.
func (s *session) expect(step string, expected int) error {
	s.setDeadline()
	code, msg, err := s.text.ReadResponse(0)
	if err != nil {
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) {
			code, msg = tpErr.Code, tpErr.Msg
		} else {
			return &ProtocolError{Step: step, Expected: expected, Err: err}
		}
	}
	if !codeAccepted(expected, code) {
		return &ProtocolError{
			Step:     step,
			Expected: expected,
			Code:     code,
			Response: strconv.Itoa(code) + " " + msg,
		}
	}
	return nil
}

// cmd writes one command line and checks the reply.
func (s *session) cmd(step string, expected int, line string) error {
	s.setDeadline()
	if err := s.text.PrintfLine("%s", line); err != nil {
		return &ProtocolError{Step: step, Expected: expected, Err: err}
	}
	return s.expect(step, expected)
}

func (s *session) greet() error {
	if err := s.expect("greeting", 220); err != nil {
		return err
	}
	s.state = stateGreeted
	return nil
}

func (s *session) hello(localName string) error {
	return s.cmd("ehlo", 250, "EHLO "+localName)
}

// upgrade runs STARTTLS on the open stream and re-introduces the client.
func (s *session) upgrade(ctx context.Context, tlsCfg *tls.Config, localName string) error {
	if err := s.cmd("starttls", 220, "STARTTLS"); err != nil {
		return err
	}
	s.setDeadline()
	conn := tls.Client(s.conn, tlsCfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		return &TLSError{Err: err}
	}
	s.conn = conn
	s.text = textproto.NewConn(conn)
	if err := s.hello(localName); err != nil {
		return err
	}
	s.state = stateTLSUpgraded
	return nil
}

func (s *session) authLogin(username, password string) error {
	if err := s.cmd("auth", 334, "AUTH LOGIN"); err != nil {
		return err
	}
	if err := s.cmd("auth username", 334, base64.StdEncoding.EncodeToString([]byte(username))); err != nil {
		return err
	}
	if err := s.cmd("auth password", 235, base64.StdEncoding.EncodeToString([]byte(password))); err != nil {
		return err
	}
	s.state = stateAuthenticated
	return nil
}

func (s *session) mailFrom(from string) error {
	if err := s.cmd("mail from", 250, "MAIL FROM:<"+from+">"); err != nil {
		return err
	}
	s.state = stateMailFromSent
	return nil
}

func (s *session) rcptTo(to string) error {
	if err := s.cmd("rcpt to", 250, "RCPT TO:<"+to+">"); err != nil {
		return err
	}
	s.state = stateRcptToSent
	return nil
}

func (s *session) data(msg []byte) error {
	if err := s.cmd("data", 354, "DATA"); err != nil {
		return err
	}
	s.setDeadline()
	w := s.text.DotWriter()
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return &ProtocolError{Step: "data body", Expected: 250, Err: err}
	}
	if err := w.Close(); err != nil {
		return &ProtocolError{Step: "data body", Expected: 250, Err: err}
	}
	if err := s.expect("data body", 250); err != nil {
		return err
	}
	s.state = stateDataSent
	return nil
}

// quit says goodbye; the reply is read but never judged.
func (s *session) quit() {
	s.setDeadline()
	if err := s.text.PrintfLine("QUIT"); err == nil {
		_, _, _ = s.text.ReadResponse(0)
	}
	s.state = stateQuitSent
}
