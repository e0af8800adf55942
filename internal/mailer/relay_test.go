package mailer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// fakeRelay is an in-process SMTP relay
// ---------------------------------------------------------------------------

type fakeRelay struct {
	ln net.Listener

	// scripted replies
	greeting    string
	ehloReply   string
	authFinal   string
	mailReply   string
	implicitTLS bool
	tlsConfig   *tls.Config // enables STARTTLS when non-nil

	mu       sync.Mutex
	commands []string
	messages []string
	username string
	password string
	wg       sync.WaitGroup
}

func newFakeRelay(t *testing.T, opts ...func(*fakeRelay)) *fakeRelay {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	r := &fakeRelay{
		ln:        ln,
		greeting:  "220 relay.test ESMTP ready",
		authFinal: "235 2.7.0 Authentication successful",
		mailReply: "250 2.1.0 Ok",
	}
	for _, opt := range opts {
		opt(r)
	}
	r.wg.Add(1)
	go r.serve()
	t.Cleanup(func() {
		ln.Close()
		r.wg.Wait()
	})
	return r
}

func (r *fakeRelay) addr() string { return r.ln.Addr().String() }

func (r *fakeRelay) port() int { return r.ln.Addr().(*net.TCPAddr).Port }

func (r *fakeRelay) serve() {
	defer r.wg.Done()
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			return
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.handle(conn)
		}()
	}
}

func (r *fakeRelay) record(cmd string) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
}

func (r *fakeRelay) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	if r.implicitTLS {
		tc := tls.Server(conn, r.tlsConfig)
		if err := tc.Handshake(); err != nil {
			return
		}
		conn = tc
	}
	tp := textproto.NewConn(conn)

	_ = tp.PrintfLine("%s", r.greeting)
	authStep := 0
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}

		switch authStep {
		case 1:
			b, _ := base64.StdEncoding.DecodeString(line)
			r.mu.Lock()
			r.username = string(b)
			r.mu.Unlock()
			authStep = 2
			_ = tp.PrintfLine("334 UGFzc3dvcmQ6")
			continue
		case 2:
			b, _ := base64.StdEncoding.DecodeString(line)
			r.mu.Lock()
			r.password = string(b)
			r.mu.Unlock()
			authStep = 0
			_ = tp.PrintfLine("%s", r.authFinal)
			continue
		}

		verb := strings.ToUpper(line)
		if i := strings.IndexAny(verb, " :"); i > 0 {
			verb = verb[:i]
		}
		r.record(line)

		switch verb {
		case "EHLO":
			if r.ehloReply != "" {
				_ = tp.PrintfLine("%s", r.ehloReply)
				continue
			}
			_ = tp.PrintfLine("250-relay.test greets you")
			if r.tlsConfig != nil && !r.implicitTLS {
				_ = tp.PrintfLine("250-STARTTLS")
			}
			_ = tp.PrintfLine("250 AUTH LOGIN PLAIN")
		case "STARTTLS":
			if r.tlsConfig == nil {
				_ = tp.PrintfLine("454 TLS not available")
				continue
			}
			_ = tp.PrintfLine("220 2.0.0 Ready to start TLS")
			tc := tls.Server(conn, r.tlsConfig)
			if err := tc.Handshake(); err != nil {
				return
			}
			conn = tc
			tp = textproto.NewConn(tc)
		case "AUTH":
			authStep = 1
			_ = tp.PrintfLine("334 VXNlcm5hbWU6")
		case "MAIL":
			_ = tp.PrintfLine("%s", r.mailReply)
		case "RCPT":
			_ = tp.PrintfLine("250 2.1.5 Ok")
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			r.mu.Lock()
			r.messages = append(r.messages, string(body))
			r.mu.Unlock()
			_ = tp.PrintfLine("250 2.0.0 Ok: queued")
		case "QUIT":
			_ = tp.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tp.PrintfLine("502 5.5.2 Command not recognized")
		}
	}
}

// count returns how many recorded commands start with prefix.
func (r *fakeRelay) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.commands {
		if strings.HasPrefix(strings.ToUpper(c), prefix) {
			n++
		}
	}
	return n
}

func (r *fakeRelay) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func (r *fakeRelay) credentials() (username, password string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.username, r.password
}

func (r *fakeRelay) lastMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

// ---------------------------------------------------------------------------
// routingDialer counts dials and maps logical addresses to the relay
// ---------------------------------------------------------------------------

type routingDialer struct {
	mu     sync.Mutex
	routes map[string]string // logical addr -> real addr; missing = refused
	// blackholes never answer; the dial blocks until ctx is done
	blackholes map[string]bool
	dials      []string
}

func (d *routingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	d.dials = append(d.dials, address)
	target, ok := d.routes[address]
	blocked := d.blackholes[address]
	d.mu.Unlock()
	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if !ok {
		return nil, errors.New("connection refused")
	}
	var nd net.Dialer
	return nd.DialContext(ctx, network, target)
}

func (d *routingDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testTLS returns a server config with a fresh self-signed certificate for
// smtp.example.com and a client config that trusts it.
func testTLS(t *testing.T) (server, client *tls.Config) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "smtp.example.com"},
		DNSNames:              []string{"smtp.example.com"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	server = &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}},
	}
	client = &tls.Config{RootCAs: pool, ServerName: "smtp.example.com"}
	return server, client
}

func baseConfig(port int) Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           port,
		Encryption:     EncryptionNone,
		Username:       "mailer@example.com",
		Password:       "s3cret",
		FromAddress:    "noreply@example.com",
		FromName:       "Example Site",
		AdminAddress:   "owner@example.com",
		LocalName:      "test.local",
		DialTimeout:    2 * time.Second,
		CommandTimeout: 5 * time.Second,
	}
}
