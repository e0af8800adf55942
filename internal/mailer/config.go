package mailer

import (
	"crypto/tls"
	"strings"
	"time"
)

// Encryption selects how the relay connection is secured.
type Encryption string

const (
	EncryptionNone     Encryption = "none"
	EncryptionSSL      Encryption = "ssl"      // implicit TLS from the first byte
	EncryptionTLS      Encryption = "tls"      // upgraded with STARTTLS
	EncryptionSTARTTLS Encryption = "starttls" // same as EncryptionTLS
)

// Conventional relay ports.
const (
	ImplicitTLSPort = 465
	StartTLSPort    = 587
)

const (
	defaultDialTimeout    = 10 * time.Second
	defaultCommandTimeout = 30 * time.Second
)

// ParseEncryption normalizes a configured encryption mode. The empty
// string is reported as invalid so a blank setting cannot silently mean
// "plaintext".
func ParseEncryption(s string) (Encryption, bool) {
	switch Encryption(strings.ToLower(strings.TrimSpace(s))) {
	case EncryptionNone:
		return EncryptionNone, true
	case EncryptionSSL:
		return EncryptionSSL, true
	case EncryptionTLS:
		return EncryptionTLS, true
	case EncryptionSTARTTLS:
		return EncryptionSTARTTLS, true
	}
	return "", false
}

func (e Encryption) usesStartTLS() bool {
	return e == EncryptionTLS || e == EncryptionSTARTTLS
}

// Config holds everything the dispatcher needs. It is read-only after
// construction.
type Config struct {
	Host         string
	Port         int
	Encryption   Encryption
	Username     string
	Password     string
	FromAddress  string
	FromName     string
	AdminAddress string

	// PublicURL is the site's base URL. When set, admin notifications
	// link straight to the inquiry in the admin panel.
	PublicURL string

	// LocalName is sent with EHLO. Defaults to the host name.
	LocalName string

	// DialTimeout bounds each connection attempt.
	DialTimeout time.Duration
	// CommandTimeout bounds every command/reply round trip after the
	// connection is open. A negative value disables the deadline.
	CommandTimeout time.Duration

	// TLSConfig overrides the client TLS settings. ServerName defaults to Host.
	TLSConfig *tls.Config
}

// Validate checks that every required setting is present. It never touches
// the network.
func (c Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"host", c.Host},
		{"encryption", string(c.Encryption)},
		{"username", c.Username},
		{"password", c.Password},
		{"from_address", c.FromAddress},
		{"from_name", c.FromName},
		{"admin_address", c.AdminAddress},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ConfigError{Key: r.key}
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Key: "port", Reason: "must be between 1 and 65535"}
	}
	if _, ok := ParseEncryption(string(c.Encryption)); !ok {
		return &ConfigError{Key: "encryption", Reason: "must be one of none, ssl, tls, starttls"}
	}
	return nil
}

func (c Config) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return defaultDialTimeout
}

func (c Config) commandTimeout() time.Duration {
	switch {
	case c.CommandTimeout < 0:
		return 0
	case c.CommandTimeout == 0:
		return defaultCommandTimeout
	}
	return c.CommandTimeout
}

func (c Config) tlsConfig() *tls.Config {
	var cfg *tls.Config
	if c.TLSConfig != nil {
		cfg = c.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = c.Host
	}
	return cfg
}
