package mailer

import (
	"errors"
	"fmt"
)

// ConfigError is returned before any network activity when a required
// mail setting is missing or malformed.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("mailer: missing required setting %q", e.Key)
	}
	return fmt.Sprintf("mailer: invalid setting %q: %s", e.Key, e.Reason)
}

// ConnectionError reports that no stream to the relay could be opened.
// When the implicit-TLS port fell back to the STARTTLS port, Fallback holds
// the second address tried and FirstErr the original failure.
type ConnectionError struct {
	Addr     string
	Fallback string
	FirstErr error
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Fallback != "" {
		return fmt.Sprintf("mailer: connect %s failed (%v), fallback %s failed: %v", e.Addr, e.FirstErr, e.Fallback, e.Err)
	}
	return fmt.Sprintf("mailer: connect %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError carries the raw relay response for a step whose reply code
// was outside the accepted class. Code is 0 when the reply could not be read
// at all; Err then holds the I/O or parse failure.
type ProtocolError struct {
	Step     string
	Expected int
	Code     int
	Response string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("mailer: %s: no valid reply: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("mailer: %s: expected %d, relay answered %q", e.Step, e.Expected, e.Response)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TLSError reports a failed STARTTLS negotiation.
type TLSError struct {
	Err error
}

func (e *TLSError) Error() string { return "mailer: starttls handshake failed: " + e.Err.Error() }

func (e *TLSError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
