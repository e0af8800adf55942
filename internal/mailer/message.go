package mailer

import (
	"bytes"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// String formats the address for a header. Non-ASCII display names are
// base64 MIME words; ASCII names are quoted when they contain specials.
func (a Address) String() string {
	email := stripNewlines(a.Email)
	name := stripNewlines(strings.TrimSpace(a.Name))
	if name == "" {
		return "<" + email + ">"
	}
	return formatDisplayName(name) + " <" + email + ">"
}

// Envelope is one outgoing email.
type Envelope struct {
	To       Address
	ReplyTo  *Address
	Subject  string
	HTMLBody string
	TextBody string
}

// newBoundary returns a random multipart boundary token.
func newBoundary() string {
	return "=_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// buildMessage renders headers and a multipart/alternative body with CRLF
// line endings. Dot-stuffing is left to the DATA writer.
func buildMessage(from Address, env Envelope, boundary string, date time.Time) []byte {
	var b bytes.Buffer

	header := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	header("Date", date.Format(time.RFC1123Z))
	header("From", from.String())
	header("To", env.To.String())
	if env.ReplyTo != nil && strings.TrimSpace(env.ReplyTo.Email) != "" {
		header("Reply-To", env.ReplyTo.String())
	}
	header("Subject", encodeHeaderText(stripNewlines(env.Subject)))
	header("MIME-Version", "1.0")
	header("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	writePart := func(contentType, body string) {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: " + contentType + "; charset=UTF-8\r\n")
		b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
		b.WriteString("\r\n")
		b.WriteString(toCRLF(body))
		b.WriteString("\r\n")
	}
	writePart("text/plain", env.TextBody)
	writePart("text/html", env.HTMLBody)
	b.WriteString("--" + boundary + "--\r\n")

	return b.Bytes()
}

func encodeHeaderText(s string) string {
	if isASCII(s) {
		return s
	}
	return mime.BEncoding.Encode("UTF-8", s)
}

func formatDisplayName(name string) string {
	if !isASCII(name) {
		return mime.BEncoding.Encode("UTF-8", name)
	}
	if strings.ContainsAny(name, `()<>[]:;@\,."`) {
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
		return `"` + r.Replace(name) + `"`
	}
	return name
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
