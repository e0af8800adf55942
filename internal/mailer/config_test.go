package mailer

import (
	"crypto/tls"
	"testing"
	"time"
)

func TestParseEncryption(t *testing.T) {
	tests := []struct {
		in     string
		want   Encryption
		wantOK bool
	}{
		{"none", EncryptionNone, true},
		{"SSL", EncryptionSSL, true},
		{" tls ", EncryptionTLS, true},
		{"StartTLS", EncryptionSTARTTLS, true},
		{"", "", false},
		{"ssl3", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseEncryption(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseEncryption(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValidate_ReportsFirstMissingKey(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	ce, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if ce.Key != "host" {
		t.Errorf("Key = %q, want host", ce.Key)
	}

	if err := baseConfig(587).Validate(); err != nil {
		t.Errorf("Validate on a complete config: %v", err)
	}
}

func TestCommandTimeout(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, defaultCommandTimeout},
		{-1, 0},
		{5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := (Config{CommandTimeout: tt.in}).commandTimeout(); got != tt.want {
			t.Errorf("commandTimeout(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := (Config{}).dialTimeout(); got != defaultDialTimeout {
		t.Errorf("dialTimeout() = %v, want %v", got, defaultDialTimeout)
	}
}

func TestTLSConfig(t *testing.T) {
	cfg := Config{Host: "smtp.example.com"}
	tc := cfg.tlsConfig()
	if tc.ServerName != "smtp.example.com" || tc.MinVersion != tls.VersionTLS12 {
		t.Errorf("default tls config = %q/%x", tc.ServerName, tc.MinVersion)
	}

	override := &tls.Config{ServerName: "relay.internal"}
	cfg.TLSConfig = override
	if got := cfg.tlsConfig(); got.ServerName != "relay.internal" || got == override {
		t.Error("override not cloned with its server name")
	}
}
